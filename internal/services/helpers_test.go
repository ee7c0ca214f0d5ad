package services

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
)

func testRedisAddr() string {
	_, filename, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), "..", "..", ".env"))
	return os.Getenv("REDIS_ADDR")
}
