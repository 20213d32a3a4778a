package clickhouse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/naptholomew/tempest-attendance/pkg/retry"
	"github.com/naptholomew/tempest-attendance/pkg/utils"
	"go.uber.org/zap"
)

// Client wraps a native ClickHouse connection plus the target database name.
type Client struct {
	Logger         *zap.Logger
	Db             driver.Conn
	TargetDatabase string
}

// New opens a ClickHouse connection from CLICKHOUSE_ADDR and pings it, with
// backoff so the service survives the database starting after it does.
// The connection stays on the default database; InitializeDB creates and
// switches to the target one.
func New(ctx context.Context, logger *zap.Logger, dbName string) (Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	client := Client{Logger: logger, TargetDatabase: dbName}

	dsn := utils.Env("CLICKHOUSE_ADDR", "clickhouse://localhost:9000?sslmode=disable")
	addr, username, password, err := parseDSN(dsn)
	if err != nil {
		return Client{}, err
	}

	options := &clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: username,
			Password: password,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    utils.EnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    utils.EnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Hour,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}

	err = retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "clickhouse_connection", func() error {
		conn, openErr := clickhouse.Open(options)
		if openErr != nil {
			return fmt.Errorf("open clickhouse connection: %w", openErr)
		}
		if pingErr := conn.Ping(connCtx); pingErr != nil {
			return fmt.Errorf("ping clickhouse: %w", pingErr)
		}
		client.Db = conn
		return nil
	})
	if err != nil {
		return Client{}, err
	}

	logger.Info("ClickHouse connected",
		zap.String("addr", addr),
		zap.String("database", dbName))
	return client, nil
}

// parseDSN pulls the host:port and credentials out of a clickhouse:// DSN.
func parseDSN(dsn string) (addr, username, password string, err error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", "", fmt.Errorf("parse CLICKHOUSE_ADDR: %w", err)
	}
	addr = u.Host
	if addr == "" {
		addr = "localhost:9000"
	}
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
	}
	if username == "" {
		username = "default"
	}
	return addr, username, password, nil
}

// SanitizeName sanitizes an identifier for use as a database name.
func SanitizeName(id string) string {
	s := strings.ToLower(id)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
