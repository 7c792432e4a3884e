package sweeper_client

import (
	"context"

	"github.com/mcdev12/coinsweeper/go/internal/models"
	"github.com/rs/zerolog/log"
)

// FetchUserInfo returns the current user's profile. Failures yield an empty
// record and a warning, never an error.
func (c *SweeperClient) FetchUserInfo(ctx context.Context, sess *Session) models.UserInfo {
	resp, err := sess.api.Get(ctx, UserInfoEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("failed to retrieve user information")
		return models.UserInfo{}
	}
	if !resp.OK() {
		log.Warn().Int("status", resp.StatusCode).Msg("failed to retrieve user information")
		return models.UserInfo{}
	}

	var info models.UserInfo
	if err := resp.DecodeJSON(&info); err != nil {
		log.Warn().Err(err).Msg("failed to decode user information")
		return models.UserInfo{}
	}

	if info.ID != "" {
		sess.UserID = info.ID
	}
	return info
}
