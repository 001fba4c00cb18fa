package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func OperationID(id string) slog.Attr {
	return slog.String("operation_id", id)
}

func OperationType(t string) slog.Attr {
	return slog.String("operation_type", t)
}

func ResourceType(t string) slog.Attr {
	return slog.String("resource_type", t)
}

func FeatureKey(key string) slog.Attr {
	return slog.String("feature_key", key)
}

func Segment(segment string) slog.Attr {
	return slog.String("segment", segment)
}

// NetworkStatus accepts any string-like status type.
func NetworkStatus[S ~string](status S) slog.Attr {
	return slog.String("network_status", string(status))
}

func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func SnapshotKey(key string) slog.Attr {
	return slog.String("snapshot_key", key)
}
