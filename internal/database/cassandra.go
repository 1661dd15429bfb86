package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// DefaultCassandraQueryTimeout is the default timeout for Cassandra queries
const DefaultCassandraQueryTimeout = 5 * time.Second

// CassandraConfig holds Cassandra connection configuration
type CassandraConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
}

// CassandraDB wraps the gocql Session with context support
type CassandraDB struct {
	Session *gocql.Session
}

// NewCassandraDB creates a new CassandraDB instance from config
func NewCassandraDB(config *CassandraConfig) (*CassandraDB, error) {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = gocql.Quorum

	if config.Timeout > 0 {
		cluster.Timeout = config.Timeout
	} else {
		cluster.Timeout = DefaultCassandraQueryTimeout
	}

	if config.Username != "" && config.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}
	return &CassandraDB{Session: session}, nil
}

// Close closes the Cassandra session
func (c *CassandraDB) Close() {
	c.Session.Close()
}

// QueryWithContext executes a query bound to the given context
func (c *CassandraDB) QueryWithContext(ctx context.Context, stmt string, values ...interface{}) *gocql.Query {
	return c.Session.Query(stmt, values...).WithContext(ctx)
}

// ExecWithContext executes a statement without returning results
func (c *CassandraDB) ExecWithContext(ctx context.Context, stmt string, values ...interface{}) error {
	return c.QueryWithContext(ctx, stmt, values...).Exec()
}
