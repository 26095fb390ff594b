package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug              bool   `envconfig:"debug"`
	Port               int    `envconfig:"port"`
	Env                string `envconfig:"env"`
	Host               string `envconfig:"host"`
	BaseUrl            string `envconfig:"base_url"`
	AppUrl             string `envconfig:"app_url"`
	PostgresHost       string `envconfig:"postgres_host"`
	PostgresUser       string `envconfig:"postgres_user"`
	PostgresDB         string `envconfig:"postgres_db"`
	PostgresPort       int    `envconfig:"postgres_port"`
	PostgresPassword   string `envconfig:"postgres_password"`
	RedisURL           string `envconfig:"redis_url"`
	JWTSecret          string `envconfig:"jwt_secret"`
	MailgunApiKey      string `envconfig:"mg_api_key"`
	MgDomain           string `envconfig:"mg_domain"`
	MgEmailFrom        string `envconfig:"email_from"`
	GoogleClientID     string `envconfig:"google_client_id"`
	GoogleClientSecret string `envconfig:"google_client_secret"`
	GoogleRedirectURL  string `envconfig:"google_redirect_url"`
	AwsRegion          string `envconfig:"aws_region"`
	AwsAccessKeyID     string `envconfig:"aws_access_key_id"`
	AwsSecretAccessKey string `envconfig:"aws_secret_access_key"`
	AvatarBucket       string `envconfig:"avatar_bucket"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("filmcrew", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
