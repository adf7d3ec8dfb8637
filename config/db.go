package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "qr-booking-backend/logger"
	"qr-booking-backend/models"
)

// Models lists every table owned or read by the service, parent tables first.
func Models() []interface{} {
	return []interface{}{
		&models.SupplierPage{},
		&models.QRCode{},
		&models.QRScanDay{},
		&models.Category{},
		&models.Activity{},
		&models.SupplierPageActivity{},
		&models.ActivitySchedule{},
		&models.ActivityClient{},
		&models.Banner{},
		&models.BannerActivity{},
		&models.VisitorEvent{},
		&models.Booking{},
	}
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	port := u.Port()
	if port == "" {
		port = "3306"
	}
	pass, _ := u.User.Password()

	mc := baseMySQLConfig()
	mc.User = u.User.Username()
	mc.Passwd = pass
	mc.Addr = u.Hostname() + ":" + port
	mc.DBName = dbName
	for k, v := range u.Query() {
		if len(v) > 0 && k != "parseTime" && k != "loc" {
			mc.Params[k] = v[0]
		}
	}
	return mc.FormatDSN(), nil
}

func baseMySQLConfig() *mysqldriver.Config {
	mc := mysqldriver.NewConfig()
	mc.Net = "tcp"
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc
}

// ResolveMySQLDSN prefers MYSQL_URL / DATABASE_URL (mysql:// URL or raw DSN)
// and falls back to the discrete DB_* settings.
func ResolveMySQLDSN(cfg DatabaseConfig) (string, error) {
	if raw := strings.TrimSpace(cfg.URL); raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		if _, err := mysqldriver.ParseDSN(raw); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return raw, nil
	}

	mc := baseMySQLConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Addr = cfg.Host + ":" + cfg.Port
	mc.DBName = cfg.Database
	return mc.FormatDSN(), nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ConnectDatabase opens the MySQL connection, applies pool settings and, when
// DB_AUTO_MIGRATE is on, migrates the schema.
func ConnectDatabase(cfg DatabaseConfig, appLog *applog.Logger) (*gorm.DB, error) {
	dsn, err := ResolveMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		log.New(appLog.Writer("GORM"), "", 0),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(Models()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		appLog.LogDatabase("MIGRATE", "*", "schema migrated")
	}
	return db, nil
}

// IsDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func IsDuplicateKey(err error) bool {
	var merr *mysqldriver.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	return false
}
