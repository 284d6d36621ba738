package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/kaabmedia/Vdubscards/internal/config"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/subscriber"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init opens the MySQL connection used by the newsletter worker and
// migrates the subscriber table.
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		conn, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}
		if err := conn.AutoMigrate(&subscriber.Subscriber{}); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		db = conn
	})
	return db
}
