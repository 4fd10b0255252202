package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

func TestConnectionStrings(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "survey", Password: "p@ss word", Name: "hustler", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=survey password=p@ss word dbname=hustler sslmode=disable", DSN(cfg))
	assert.Equal(t, "postgres://survey:p%40ss%20word@db:5432/hustler?sslmode=disable", URL(cfg))
}
