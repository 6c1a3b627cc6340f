package handler

import (
	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/eaplanner/internal/config"
	"github.com/sysu-ecnc-dev/eaplanner/internal/repository"
	"github.com/sysu-ecnc-dev/eaplanner/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	validator   *utils.Validator
	config      *config.Config
	repository  *repository.Repository
	runChannel  *amqp.Channel
	redisClient *redis.Client

	adminPasswordHash []byte

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, runCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	v, err := utils.NewValidator()
	if err != nil {
		return nil, err
	}

	// 管理员密码只在配置中以明文给出，启动时计算一次哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validator:   v,
		config:      cfg,
		repository:  repo,
		runChannel:  runCh,
		redisClient: rdb,

		adminPasswordHash: hash,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/algorithms", h.GetAllAlgorithms)

		r.Route("/instances", func(r chi.Router) {
			r.Post("/", h.CreateInstance)
			r.Get("/", h.GetAllInstances)
			r.Post("/generate", h.GenerateInstance)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.instance)
				r.Get("/", h.GetInstance)
				r.Delete("/", h.DeleteInstance)
			})
		})

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.CreateRun)
			r.Get("/", h.GetAllRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.run)
				r.Get("/", h.GetRun)
				r.Get("/logbook", h.GetRunLogbook)
				r.Get("/solution", h.GetRunSolution)
			})
		})
	})
}
