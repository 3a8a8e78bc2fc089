package services

import (
	"github.com/kinddrop/server/internal/config"
	"github.com/kinddrop/server/internal/daily"
	"github.com/kinddrop/server/internal/repositories"
)

var (
	Messages   *MessageService
	Moderation *ModerationClient
)

// Init wires the package-level services after the database is connected.
func Init() error {
	resolver, err := daily.NewResolver(daily.SystemClock, config.Envs.ResetTimeZone)
	if err != nil {
		return err
	}
	Messages = NewMessageService(repositories.DB, resolver, config.Envs.SendReward)
	Moderation = NewModerationClient(config.Envs.OpenAIAPIKey)
	return nil
}
