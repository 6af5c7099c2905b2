package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type PaymentConfig struct {
	Env           string `yaml:"env"`
	HTTPServer    `yaml:"http_server"`
	PaymentDB     `yaml:"payment_db"`
	Redis         `yaml:"redis"`
	KafkaService  `yaml:"kafka_service"`
	Paystack      `yaml:"paystack"`
	Notifications `yaml:"notifications"`
	Reverify      `yaml:"reverify"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type PaymentDB struct {
	Dsn            string `yaml:"dsn" env:"PAYMENT_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path"`
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	TTLSec   int    `yaml:"ttl_sec" env-default:"300"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"notification-events"`
}

type Paystack struct {
	BaseURL       string `yaml:"base_url" env-default:"https://api.paystack.co"`
	SecretKey     string `yaml:"secret_key" env:"PAYSTACK_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"PAYSTACK_WEBHOOK_SECRET"`
	TimeoutSec    int    `yaml:"timeout_sec" env-default:"10"`
}

type Notifications struct {
	AdminEmail string `yaml:"admin_email"`
}

type Reverify struct {
	IntervalSec int `yaml:"interval_sec" env-default:"60"`
	StaleAfter  int `yaml:"stale_after_sec" env-default:"900"`
	BatchSize   int `yaml:"batch_size" env-default:"50"`
}

func MustLoad() *PaymentConfig {

	// Processing env config variable and file
	configPath := os.Getenv("PAYMENT_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("PAYMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg PaymentConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
