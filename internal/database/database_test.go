package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

type testModule struct {
	migrations []Migration
}

func (m testModule) Name() string            { return "test" }
func (m testModule) Migrations() []Migration { return m.migrations }

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRegisterModuleAppliesInOrder(t *testing.T) {
	db := openMemory(t)

	module := testModule{migrations: []Migration{
		{Version: 2, Description: "add column", SQL: `ALTER TABLE items ADD COLUMN note TEXT DEFAULT ''`},
		{Version: 1, Description: "create table", SQL: `CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)`},
	}}
	require.NoError(t, db.RegisterModule(module))

	version, err := db.ModuleVersion("test")
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = db.Exec(`INSERT INTO items (name, note) VALUES ('a', 'b')`)
	require.NoError(t, err)

	// Already applied migrations are skipped.
	require.NoError(t, db.RegisterModule(module))
}

func TestRegisterModuleFailureKeepsVersion(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, db.RegisterModule(testModule{migrations: []Migration{
		{Version: 1, Description: "create table", SQL: `CREATE TABLE items (id INTEGER PRIMARY KEY)`},
	}}))

	err := db.RegisterModule(testModule{migrations: []Migration{
		{Version: 1, Description: "create table", SQL: `CREATE TABLE items (id INTEGER PRIMARY KEY)`},
		{Version: 2, Description: "broken", SQL: `ALTER TABLE missing ADD COLUMN x TEXT`},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test v2 (broken)")

	version, err := db.ModuleVersion("test")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestOpenCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, filepath.Join(dir, constants.DatabaseFile))
}

func TestModuleVersionUnknown(t *testing.T) {
	db := openMemory(t)
	version, err := db.ModuleVersion("nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}
