package migrations_test

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/kubev2v/transcript-drainer/internal/config"
	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/pkg/migrations"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("migrations", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		cfg    *config.Config
	)

	BeforeAll(func() {
		cfg = config.NewDefault()
		if cfg.Database.Type != "pgsql" {
			dir, err := os.MkdirTemp("", "migrations-test")
			Expect(err).To(BeNil())
			DeferCleanup(os.RemoveAll, dir)
			cfg.Database.Name = filepath.Join(dir, "transcripts.db")
		}

		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
	})

	AfterAll(func() {
		s.Close()
	})

	Context("sqlite", func() {
		It("refuses to migrate a sqlite database", func() {
			if cfg.Database.Type == "pgsql" {
				Skip("running against postgres")
			}
			err := migrations.MigrateStore(gormdb, "")
			Expect(err).To(MatchError(migrations.ErrUnsupportedDialect))
		})
	})

	Context("store migrations", Ordered, func() {
		BeforeEach(func() {
			if cfg.Database.Type != "pgsql" {
				Skip("DB_TYPE=pgsql is required")
			}
		})

		It("fails to migrate the db -- migration folder does not exist", func() {
			err := migrations.MigrateStore(gormdb, "some folder")
			Expect(err).NotTo(BeNil())
		})

		tableExists := func(name string) bool {
			exists := false
			tx := gormdb.Raw(fmt.Sprintf("SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' and tablename = '%s');", name)).Scan(&exists)
			Expect(tx.Error).To(BeNil())
			return exists
		}

		It("successfully migrates the db from the embedded migrations", func() {
			Expect(migrations.MigrateStore(gormdb, "")).To(BeNil())

			for _, table := range []string{"work_items", "transcript_chunks"} {
				Expect(tableExists(table)).To(BeTrue())
			}

			version, err := migrations.Version(gormdb)
			Expect(err).To(BeNil())
			Expect(version).To(BeNumerically(">", 0))
		})

		It("successfully migrates the db from a folder", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			Expect(migrations.MigrateStore(gormdb, path.Join(currentFolder, "sql"))).To(BeNil())
			Expect(tableExists("work_items")).To(BeTrue())
		})

		AfterEach(func() {
			if cfg.Database.Type != "pgsql" {
				return
			}
			gormdb.Exec("DROP TABLE IF EXISTS transcript_chunks;")
			gormdb.Exec("DROP TABLE IF EXISTS work_items;")
			gormdb.Exec("DROP TABLE IF EXISTS goose_db_version;")
		})
	})
})
