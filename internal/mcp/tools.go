package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftbot/internal/models"
)

// --- Tool definitions ---

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Last-workout digest plus 7-day and 30-day training volume for a user."),
	mcp.WithNumber("user", mcp.Required(), mcp.Description("Telegram id of the user")),
)

var toolGetVolume = mcp.NewTool("get_volume",
	mcp.WithDescription("Total tonnage (weight*reps) over a trailing window of days."),
	mcp.WithNumber("user", mcp.Required(), mcp.Description("Telegram id of the user")),
	mcp.WithNumber("days", mcp.Description("Window size in days. Defaults to 7.")),
)

var toolGetTopExercises = mcp.NewTool("get_top_exercises",
	mcp.WithDescription("Exercises ranked by cumulative tonnage, descending."),
	mcp.WithNumber("user", mcp.Required(), mcp.Description("Telegram id of the user")),
	mcp.WithNumber("limit", mcp.Description("Maximum entries. Defaults to 5.")),
)

var toolGetLatestPRs = mcp.NewTool("get_latest_prs",
	mcp.WithDescription("Most recent personal records (best estimated one-rep-max snapshots), newest first."),
	mcp.WithNumber("user", mcp.Required(), mcp.Description("Telegram id of the user")),
	mcp.WithNumber("limit", mcp.Description("Maximum entries. Defaults to 10.")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("Page through a user's workouts, most recent first."),
	mcp.WithNumber("user", mcp.Required(), mcp.Description("Telegram id of the user")),
	mcp.WithNumber("page", mcp.Description("1-based page. Defaults to 1.")),
	mcp.WithNumber("limit", mcp.Description("Page size. Defaults to 20.")),
)

var toolGetWorkoutDetail = mcp.NewTool("get_workout_detail",
	mcp.WithDescription("Full workout detail: totals, duration, and the per-exercise set breakdown with best one-rep-max estimates."),
	mcp.WithNumber("workout_id", mcp.Required(), mcp.Description("Workout id from list_workouts")),
)

// --- Tool handlers ---

func (h *handlers) resolveUser(ctx context.Context, req mcp.CallToolRequest) (models.UserRow, *mcp.CallToolResult) {
	telegramID, err := req.RequireInt("user")
	if err != nil {
		return models.UserRow{}, mcp.NewToolResultError("user parameter is required")
	}
	user, err := h.ds.GetUserByTelegramID(ctx, int64(telegramID))
	if err != nil {
		return models.UserRow{}, mcp.NewToolResultError("unknown user: " + err.Error())
	}
	return user, nil
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := h.resolveUser(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	last, err := h.ds.LastWorkoutSummary(ctx, user.ID)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	week, err := h.ds.VolumeForPeriod(ctx, user.ID, 7)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	month, err := h.ds.VolumeForPeriod(ctx, user.ID, 30)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"last_workout": last,
		"volume_7d":    week,
		"volume_30d":   month,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := h.resolveUser(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	days := req.GetInt("days", 7)

	volume, err := h.ds.VolumeForPeriod(ctx, user.ID, days)
	if err != nil {
		h.log.Error("mcp get_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{"days": days, "tonnage": volume})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTopExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := h.resolveUser(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	limit := req.GetInt("limit", 5)

	top, err := h.ds.TopExercisesByTonnage(ctx, user.ID, limit)
	if err != nil {
		h.log.Error("mcp get_top_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(top)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getLatestPRs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := h.resolveUser(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	limit := req.GetInt("limit", 10)

	prs, err := h.ds.LatestPRs(ctx, user.ID, limit)
	if err != nil {
		h.log.Error("mcp get_latest_prs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(prs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := h.resolveUser(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	page := req.GetInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := req.GetInt("limit", 20)

	workouts, total, err := h.ds.ListWorkouts(ctx, user.ID, (page-1)*limit, limit)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"workouts": workouts,
		"total":    total,
		"page":     page,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workoutID, err := req.RequireInt("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}

	detail, err := h.ds.WorkoutDetail(ctx, int64(workoutID))
	if err != nil {
		h.log.Error("mcp get_workout_detail", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
