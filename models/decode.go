package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DecodeIssue maps a raw store document onto an Issue. It never fails:
// missing or mistyped text fields become "", a missing status becomes
// Reported and unreadable timestamps stay at the zero time.
func DecodeIssue(raw bson.M) Issue {
	issue := Issue{
		ID:          decodeID(raw["_id"]),
		Category:    decodeString(raw["category"]),
		Ward:        decodeString(raw["ward"]),
		Description: decodeString(raw["description"]),
		ReporterID:  decodeString(raw["reporterId"]),
		Status:      Reported,
		CreatedAt:   decodeTime(raw["createdAt"]),
		UpdatedAt:   decodeTime(raw["updatedAt"]),
	}
	if loc, ok := raw["locationText"].(string); ok {
		issue.LocationText = &loc
	}
	if status, ok := raw["status"].(string); ok && status != "" {
		issue.Status = IssueStatus(status)
	}
	return issue
}

func decodeID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func decodeString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func decodeTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case int32:
		return time.Unix(int64(t), 0).UTC()
	case float64:
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	case bson.M:
		// Firestore exports carry {seconds, nanoseconds}.
		return time.Unix(toInt64(t["seconds"]), toInt64(t["nanoseconds"])).UTC()
	case bson.D:
		m := bson.M{}
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return decodeTime(m)
	}
	return time.Time{}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
