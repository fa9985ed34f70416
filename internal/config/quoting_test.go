package config

import (
	"os"
	"slices"
	"testing"

	"github.com/joho/godotenv"
)

func TestGodotenvQuotedStatusList(t *testing.T) {
	content := `ON_TIME_STATUSES="NO PRAZO, ON_TIME"` + "\n" + `AGING_SHEET='Base Aging'`
	tmpfile, err := os.CreateTemp("", ".env.test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(tmpfile.Name())
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	if env["AGING_SHEET"] != "Base Aging" {
		t.Errorf("Expected Base Aging, got %s", env["AGING_SHEET"])
	}

	t.Setenv("ON_TIME_STATUSES", env["ON_TIME_STATUSES"])
	got := getEnvList("ON_TIME_STATUSES", nil)
	expected := []string{"NO PRAZO", "ON_TIME"}
	if !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
