package config

import (
	"log"
	"os"
	"strings"
	"time"

	"rentflow/constants"
	"rentflow/services/logger"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
)

var Cloudinary *cloudinary.Cloudinary

// AppConfig cấu hình ứng dụng đọc từ biến môi trường
type AppConfig struct {
	Env              string
	Port             string
	JWTSecret        []byte
	Location         *time.Location
	ReservationStore string // postgres | memory
	RedisAddr        string
	RedisUser        string
	RedisPassword    string
	CacheTTL         time.Duration
	CloudinaryURL    string
	ProofFolder      string
	ReminderCron     string
	ReminderLead     time.Duration
	LogLevel         logger.Level
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: không load được file .env, sử dụng biến môi trường có sẵn: %v", err)
	}
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func getEnvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: %s=%q không hợp lệ, dùng mặc định %v", key, raw, fallback)
		return fallback
	}
	return d
}

// Load đọc cấu hình; giá trị thiếu dùng mặc định
func Load() *AppConfig {
	tz := getEnvDefault("APP_TIMEZONE", constants.DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: không load được timezone %s, dùng UTC: %v", tz, err)
		loc = time.UTC
	}

	return &AppConfig{
		Env:              getEnvDefault("ENV", "dev"),
		Port:             getEnvDefault("PORT", constants.DefaultPort),
		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		Location:         loc,
		ReservationStore: strings.ToLower(getEnvDefault("RESERVATION_STORE", "postgres")),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisUser:        os.Getenv("REDIS_USER"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		CacheTTL:         getDuration("RESERVATION_CACHE_TTL", 10*time.Minute),
		CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
		ProofFolder:      getEnvDefault("PROOF_FOLDER", "reservation-proofs"),
		ReminderCron:     getEnvDefault("REMINDER_CRON", "0 * * * *"),
		ReminderLead:     getDuration("REMINDER_LEAD", constants.ReminderLead),
		LogLevel:         logger.ParseLevel(getEnvDefault("LOG_LEVEL", "info")),
	}
}

// ConnectCloudinary khởi tạo Cloudinary từ CLOUDINARY_URL; rỗng thì bỏ qua
func ConnectCloudinary(url string) error {
	if url == "" {
		log.Println("CLOUDINARY_URL trống, minh chứng chỉ nhận dạng URL")
		return nil
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return err
	}
	Cloudinary = cld
	return nil
}
