package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardforge/internal/config"
)

var _ = Describe("Config", func() {
	var dir string

	envKeys := []string{
		config.EnvStoreURL, config.EnvGeneratorURL, config.EnvDatabaseURL,
		config.EnvMaterialsDir, config.EnvLogLevel,
	}

	setEnv := func(key, value string) {
		Expect(os.Setenv(key, value)).To(Succeed())
	}

	writeConfig := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		for _, key := range envKeys {
			if old, ok := os.LookupEnv(key); ok {
				DeferCleanup(os.Setenv, key, old)
			} else {
				DeferCleanup(os.Unsetenv, key)
			}
			Expect(os.Unsetenv(key)).To(Succeed())
		}
	})

	It("should fill defaults without a file", func() {
		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Store.Backend).To(Equal(config.BackendHTTP))
		Expect(cfg.Store.URL).To(Equal(config.DefaultStoreURL))
		Expect(cfg.Store.Timeout).To(Equal(config.DefaultStoreTimeout))
		Expect(cfg.Generator.URL).To(Equal(config.DefaultGeneratorURL))
		Expect(cfg.Generator.Timeout).To(Equal(config.DefaultGenTimeout))
		Expect(cfg.Materials.Dir).To(Equal(config.DefaultMaterialsDir))
		Expect(cfg.PacingDelay()).To(Equal(config.DefaultPacing))
		Expect(cfg.Log.Level).To(Equal("info"))
	})

	It("should read YAML", func() {
		path := writeConfig("cardforge.yaml", `
store:
  backend: Memory
  timeout: 2s
generator:
  url: http://gen:9000
materials:
  dir: /srv/notes
  remote: true
pipeline:
  pacing: 10ms
log:
  level: debug
  verbose: true
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Store.Backend).To(Equal(config.BackendMemory))
		Expect(cfg.Store.Timeout).To(Equal(2 * time.Second))
		Expect(cfg.Generator.URL).To(Equal("http://gen:9000"))
		Expect(cfg.Materials.Dir).To(Equal("/srv/notes"))
		Expect(cfg.Materials.Remote).To(BeTrue())
		Expect(cfg.PacingDelay()).To(Equal(10 * time.Millisecond))
		Expect(cfg.Log.Level).To(Equal("debug"))
		Expect(cfg.Log.Verbose).To(BeTrue())
	})

	It("should read TOML", func() {
		path := writeConfig("cardforge.toml", `
[store]
backend = "postgres"
database_url = "postgres://localhost/cards"

[generator]
timeout = "90s"

[pipeline]
pacing = "-1s"
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Store.Backend).To(Equal(config.BackendPostgres))
		Expect(cfg.Store.DatabaseURL).To(Equal("postgres://localhost/cards"))
		Expect(cfg.Generator.Timeout).To(Equal(90 * time.Second))
		Expect(cfg.PacingDelay()).To(BeZero())
	})

	It("should let the environment override the file", func() {
		path := writeConfig("cardforge.yml", "store:\n  url: http://file:3001\n")
		setEnv(config.EnvStoreURL, "http://env:3001")
		setEnv(config.EnvLogLevel, "trace")

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Store.URL).To(Equal("http://env:3001"))
		Expect(cfg.Log.Level).To(Equal("trace"))
	})

	It("should reject unknown backends", func() {
		path := writeConfig("cardforge.yaml", "store:\n  backend: sqlite\n")
		_, err := config.Load(path)
		Expect(err).To(MatchError(config.ErrUnknownBackend))
	})

	It("should require a database url for postgres", func() {
		path := writeConfig("cardforge.yaml", "store:\n  backend: postgres\n")
		_, err := config.Load(path)
		Expect(err).To(MatchError(ContainSubstring(config.EnvDatabaseURL)))

		setEnv(config.EnvDatabaseURL, "postgres://localhost/cards")
		_, err = config.Load(path)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject unknown file formats", func() {
		path := writeConfig("cardforge.json", "{}")
		_, err := config.Load(path)
		Expect(err).To(MatchError(ContainSubstring("unsupported config format")))
	})

	It("should fail on a missing file", func() {
		_, err := config.Load(filepath.Join(dir, "nope.yaml"))
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	Context("env files", func() {
		It("should load variables without overriding existing ones", func() {
			path := writeConfig(".env", "CARDFORGE_GENERATOR_URL=http://dotenv:5050\nCARDFORGE_STORE_URL=http://dotenv:3001\n")
			setEnv(config.EnvStoreURL, "http://shell:3001")

			Expect(config.LoadEnvFiles(filepath.Join(dir, "missing.env"), path)).To(Succeed())
			Expect(os.Getenv(config.EnvGeneratorURL)).To(Equal("http://dotenv:5050"))
			Expect(os.Getenv(config.EnvStoreURL)).To(Equal("http://shell:3001"))
		})
	})
})
