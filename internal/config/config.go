package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Admin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
	} `envPrefix:"ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 14 天，单位为小时
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		NotifyAddress string `env:"NOTIFY_ADDRESS"` // 为空时不发送运行结束的通知
		SMTP          struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		RunQueue       string `env:"RUN_QUEUE" envDefault:"run_queue"`
		MailQueue      string `env:"MAIL_QUEUE" envDefault:"email_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		ProgressExpiration  int    `env:"PROGRESS_EXPIRATION" envDefault:"86400"` // 1 天
	} `envPrefix:"REDIS_"`
	Algorithm struct {
		Neval          int     `env:"NEVAL" envDefault:"100000"`
		PMin           int     `env:"PMIN" envDefault:"-50"`
		PMax           int     `env:"PMAX" envDefault:"50"`
		RepairPct      float64 `env:"REPAIR_PCT" envDefault:"1.0"`
		SeedPopulation bool    `env:"SEED_POPULATION" envDefault:"true"`
		HallOfFameSize int     `env:"HALL_OF_FAME_SIZE" envDefault:"1"`
		Parallelism    int     `env:"PARALLELISM" envDefault:"0"`
		Verbose        bool    `env:"VERBOSE" envDefault:"true"`
		LogEvery       int     `env:"LOG_EVERY" envDefault:"10"`
		SavePopulation bool    `env:"SAVE_POPULATION" envDefault:"false"`
		ResultsDir     string  `env:"RESULTS_DIR" envDefault:"results"`
		Concurrency    int     `env:"CONCURRENCY" envDefault:"1"` // worker 同时执行的运行数
	} `envPrefix:"ALGORITHM_"`
	Generator struct {
		K            int     `env:"K" envDefault:"2"`
		PDate        float64 `env:"P_DATE" envDefault:"0.16"`
		MuHours      float64 `env:"MU_HOURS" envDefault:"50"`
		StdHours     float64 `env:"STD_HOURS" envDefault:"150"`
		MuResources  float64 `env:"MU_RESOURCES" envDefault:"100"`
		StdResources float64 `env:"STD_RESOURCES" envDefault:"30"`
	} `envPrefix:"GENERATOR_"`
	Seed struct {
		Instances   int    `env:"INSTANCES" envDefault:"10"`
		Assignments []int  `env:"ASSIGNMENTS" envDefault:"10,50,100" envSeparator:","`
		ImportDir   string `env:"IMPORT_DIR" envDefault:"instances"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
