package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hanafi-dev/lms-go-api/internal/models"
)

// Actor identifies the authenticated principal invoking a use case, as
// supplied by the JWT middleware.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsInstructor reports whether the actor holds the instructor role.
func (a Actor) IsInstructor() bool {
	return a.Role == models.RoleInstructor
}

// IsStudent reports whether the actor holds the student role.
func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}

func enrollmentCacheKey(studentID uint) string {
	return fmt.Sprintf("enrollments:student:%d", studentID)
}

// invalidateEnrollmentCache drops the cached enrollment listing for a
// student. Cache invalidation failures are logged and swallowed; the entry
// expires on its own TTL.
func invalidateEnrollmentCache(ctx context.Context, cache *redis.Client, logger zerolog.Logger, studentIDs ...uint) {
	if cache == nil || len(studentIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		keys = append(keys, enrollmentCacheKey(studentID))
	}

	if err := cache.Del(ctx, keys...).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate enrollment cache")
	}
}
