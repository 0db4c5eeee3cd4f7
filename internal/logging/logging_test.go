package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	log := New("not-a-level", "text")
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level fallback, got %v", log.GetLevel())
	}
}

func TestNewJSONFormat(t *testing.T) {
	log := New("debug", "json")
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", log.Formatter)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", log.GetLevel())
	}
}

func TestWithComponentTagsEntry(t *testing.T) {
	log := New("info", "text")
	entry := WithComponent(log, "risk")
	if entry.Data["component"] != "risk" {
		t.Fatalf("expected component field, got %+v", entry.Data)
	}
}
