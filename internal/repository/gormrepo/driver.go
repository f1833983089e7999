package gormrepo

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's own LOWER and LIKE fold ASCII letters only.
const driverName = "sqlite3_graphcrm"

var registerDriver sync.Once

func sqliteDriver() string {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
			},
		})
	})
	return driverName
}
