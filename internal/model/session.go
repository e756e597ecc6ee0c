package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is the recorded outcome of a question's submissions. It is created
// on the first correct submission or on the second incorrect one; a question
// never gets more than one answer record.
type Answer struct {
	OptionIndex int  `json:"optionIndex"`
	IsCorrect   bool `json:"isCorrect"`
	Attempts    int  `json:"attempts"`
}

// TimeSlice is one contiguous interval a question was the active one.
// Timestamps and durations are Unix milliseconds.
type TimeSlice struct {
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
	Duration  int64 `json:"duration"`
}

// QuestionTime accumulates all active intervals for a single question.
// Invariant: TotalTime equals the sum of Sessions[].Duration.
type QuestionTime struct {
	TotalTime        int64       `json:"totalTime"`
	Sessions         []TimeSlice `json:"sessions"`
	CurrentStartTime *int64      `json:"currentStartTime"`
	LastActivity     *int64      `json:"lastActivity,omitempty"`
	LastEndTime      *int64      `json:"lastEndTime,omitempty"`
}

// Session is the server-side record of one exam attempt.
type Session struct {
	ID           uuid.UUID            `json:"id"`
	UserID       string               `json:"user_id"`
	StartTime    time.Time            `json:"start_time"`
	EndTime      *time.Time           `json:"end_time,omitempty"`
	Score        int                  `json:"score"`
	Answers      map[int]Answer       `json:"answers"`
	TimeTracking map[int]QuestionTime `json:"time_tracking"`
}

// SessionUpdate carries the fields of a partial session update. Nil fields
// are left untouched by the gateway.
type SessionUpdate struct {
	Score        *int                 `json:"score,omitempty"`
	Answers      map[int]Answer       `json:"answers,omitempty"`
	TimeTracking map[int]QuestionTime `json:"time_tracking,omitempty"`
	EndTime      *time.Time           `json:"end_time,omitempty"`
}
