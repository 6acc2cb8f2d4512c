package http

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with sonic as its JSON codec.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})
}
