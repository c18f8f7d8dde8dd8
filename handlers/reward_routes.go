// handlers/reward_routes.go
package handlers

import (
	"errors"
	"net/url"
	"strconv"

	"gamification-rewards/models"
	"gamification-rewards/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type logWatchRequest struct {
	UserID         string `json:"user_id"`
	AdTokensEarned *int64 `json:"ad_tokens_earned"`
}

type unlockBadgeRequest struct {
	UserID    string `json:"user_id"`
	BadgeName string `json:"badge_name"`
}

type recordGiveRequest struct {
	Count *int64 `json:"count"`
}

// userStatsResponse is the public view of a user's reward state.
type userStatsResponse struct {
	Tokens     int64           `json:"tokens"`
	Streak     int             `json:"streak"`
	Badges     models.BadgeSet `json:"badges"`
	Gives      int64           `json:"gives"`
	LastActive *models.Date    `json:"last_active"`
}

// userIDParam returns the decoded :user_id path segment.
func userIDParam(c *fiber.Ctx) (string, error) {
	userID, err := url.PathUnescape(c.Params("user_id"))
	if err != nil {
		return "", services.ErrInvalidUserID
	}
	return userID, nil
}

// SetupRewardRoutes registers the reward endpoints.
func SetupRewardRoutes(app fiber.Router, rewardService *services.RewardService, defaultLimit int, logger *logrus.Logger) {
	log := logger.WithField("component", "http")
	if defaultLimit <= 0 {
		defaultLimit = services.DefaultLeaderboardLimit
	}

	// errorResponse maps service errors onto status codes.
	errorResponse := func(c *fiber.Ctx, err error, action string) error {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case services.IsInvalidInput(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.WithError(err).WithField("path", c.Path()).Error("Failed to " + action)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to " + action,
			"cause": err.Error(),
		})
	}

	app.Post("/log_watch", func(c *fiber.Ctx) error {
		var req logWatchRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		var tokens int64
		if req.AdTokensEarned != nil {
			tokens = *req.AdTokensEarned
		}

		res, err := rewardService.LogWatch(c.UserContext(), req.UserID, tokens)
		if err != nil {
			return errorResponse(c, err, "log ad watch")
		}
		return c.JSON(fiber.Map{
			"status":              "success",
			"tokens_added":        res.TokensAdded,
			"streak":              res.State.StreakDays,
			"streak_changed":      res.StreakChanged,
			"new_badges_unlocked": res.Badges.NewlyUnlocked,
		})
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit := defaultLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrInvalidLimit.Error()})
			}
			limit = n
		}

		entries, sortBy, err := rewardService.Leaderboard(c.UserContext(), c.Query("sort_by"), limit)
		if err != nil {
			return errorResponse(c, err, "load leaderboard")
		}
		return c.JSON(fiber.Map{
			"sort_by":     sortBy,
			"leaderboard": entries,
		})
	})

	app.Post("/unlock_badge", func(c *fiber.Ctx) error {
		var req unlockBadgeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}

		badge, unlocked, err := rewardService.UnlockBadge(c.UserContext(), req.UserID, req.BadgeName)
		if err != nil {
			return errorResponse(c, err, "unlock badge")
		}
		if !unlocked {
			return c.JSON(fiber.Map{"status": "already_has_badge"})
		}
		return c.JSON(fiber.Map{"status": "badge_unlocked", "badge": badge})
	})

	app.Get("/user/:user_id", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return errorResponse(c, err, "load user stats")
		}
		state, err := rewardService.GetUserStats(c.UserContext(), userID)
		if err != nil {
			return errorResponse(c, err, "load user stats")
		}
		return c.JSON(userStatsResponse{
			Tokens:     state.Tokens,
			Streak:     state.StreakDays,
			Badges:     state.Badges,
			Gives:      state.Gives,
			LastActive: state.LastActive,
		})
	})

	app.Post("/record_give/:user_id", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return errorResponse(c, err, "record give")
		}
		var req recordGiveRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
			}
		}
		count := int64(1)
		if req.Count != nil {
			count = *req.Count
		}

		res, err := rewardService.RecordGive(c.UserContext(), userID, count)
		if err != nil {
			return errorResponse(c, err, "record give")
		}
		return c.JSON(fiber.Map{
			"status":              "success",
			"user_id":             res.UserID,
			"added_gives":         res.Added,
			"new_give_count":      res.NewGiveCount,
			"new_badges_unlocked": res.Badges.NewlyUnlocked,
		})
	})

	app.Get("/check_rewards/:user_id", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return errorResponse(c, err, "check rewards")
		}
		report, err := rewardService.CheckRewards(c.UserContext(), userID)
		if err != nil {
			return errorResponse(c, err, "check rewards")
		}
		return c.JSON(report)
	})

	app.Get("/badges", func(c *fiber.Ctx) error {
		return c.JSON(rewardService.Catalog())
	})
}

// SetupHealthRoutes registers the unauthenticated liveness probe.
func SetupHealthRoutes(app fiber.Router) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
