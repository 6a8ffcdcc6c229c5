package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "caseflow", cfg.Database.Schema)
	assert.Equal(t, "claimant", cfg.Actor.Role)
	assert.Equal(t, "json", cfg.Notify.Codec)
	assert.Empty(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Project.Name = "e6-north"
	cfg.Database.Driver = "postgres"
	cfg.Database.URL = "postgres://localhost:5432/caseflow"
	cfg.Actor.Name = "contractor-a"

	require.NoError(t, cfg.Save(dir))
	assert.True(t, Exists(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: [unclosed"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestFindConfig(t *testing.T) {
	t.Run("walks up to the config directory", func(t *testing.T) {
		root := t.TempDir()
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))

		cfg := DefaultConfig()
		cfg.Project.Name = "e6-north"
		require.NoError(t, cfg.Save(root))

		foundDir, found, err := FindConfig(nested)
		require.NoError(t, err)
		assert.Equal(t, root, foundDir)
		assert.Equal(t, "e6-north", found.Project.Name)
	})

	t.Run("not found anywhere", func(t *testing.T) {
		_, _, err := FindConfig(t.TempDir())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Project.Name = "e6-north"
		return cfg
	}

	t.Run("accepts the defaults", func(t *testing.T) {
		assert.Empty(t, valid().Validate())
	})

	t.Run("requires a project name", func(t *testing.T) {
		cfg := valid()
		cfg.Project.Name = ""
		assert.Contains(t, cfg.Validate(), "project.name is required")
	})

	t.Run("requires a driver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = ""
		assert.Contains(t, cfg.Validate(), "database.driver is required")
	})

	t.Run("rejects unknown drivers", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "sqlite"
		assert.Contains(t, cfg.Validate(), "database.driver must be 'postgres', 'postgres-pq' or 'memory'")
	})

	t.Run("postgres drivers need a URL", func(t *testing.T) {
		for _, driver := range []string{"postgres", "postgresql", "postgres-pq"} {
			cfg := valid()
			cfg.Database.Driver = driver
			cfg.Database.URL = ""
			assert.Contains(t, cfg.Validate(), "database.url is required for postgres drivers", "driver %s", driver)

			cfg.Database.URL = "postgres://localhost:5432/caseflow"
			assert.Empty(t, cfg.Validate(), "driver %s", driver)
		}
	})

	t.Run("validates the actor role", func(t *testing.T) {
		cfg := valid()
		cfg.Actor.Role = "arbiter"
		assert.Contains(t, cfg.Validate(), "actor.role must be 'claimant' or 'owner'")

		cfg.Actor.Role = "owner"
		assert.Empty(t, cfg.Validate())
	})

	t.Run("validates the codec", func(t *testing.T) {
		cfg := valid()
		cfg.Notify.Codec = "xml"
		assert.Contains(t, cfg.Validate(), "notify.codec must be 'json', 'msgpack' or 'protobuf'")

		for _, codec := range []string{"", "json", "msgpack", "protobuf"} {
			cfg.Notify.Codec = codec
			assert.Empty(t, cfg.Validate(), "codec %q", codec)
		}
	})

	t.Run("kafka topic needs brokers", func(t *testing.T) {
		cfg := valid()
		cfg.Notify.KafkaTopic = "caseflow-events"
		assert.Contains(t, cfg.Validate(), "notify.kafka_brokers is required when notify.kafka_topic is set")

		cfg.Notify.KafkaBrokers = []string{"localhost:9092"}
		assert.Empty(t, cfg.Validate())
	})
}

func TestGenerateYAML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Name = "e6-north"
	cfg.Actor.Name = "contractor-a"

	content := GenerateYAML(cfg)

	var parsed Config
	require.NoError(t, yaml.Unmarshal([]byte(content), &parsed))
	assert.Equal(t, "e6-north", parsed.Project.Name)
	assert.Equal(t, "contractor-a", parsed.Actor.Name)
	assert.Equal(t, "memory", parsed.Database.Driver)
	assert.Equal(t, "${DATABASE_URL}", parsed.Database.URL)
	assert.Equal(t, "claimant", parsed.Actor.Role)
}
