package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("create table a (id text);\ninsert into a values ('x;y');\n")
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0], "create table a")
	require.Contains(t, stmts[1], "x;y")
}

func TestListSQLOrdersLexically(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_second.up.sql", "select 2;")
	writeFile(t, dir, "0001_first.up.sql", "select 1;")
	writeFile(t, dir, "0001_first.down.sql", "select 0;")

	files, err := listSQL(dir, ".up.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "0001_first.up.sql", filepath.Base(files[0]))
	require.Equal(t, "0002_second.up.sql", filepath.Base(files[1]))

	files, err = listSQL(filepath.Join(dir, "no-existe"), ".up.sql")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestUpAppliesPendingOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_schema.up.sql", "create table a (id text);")
	writeFile(t, dir, "0002_more.up.sql", "create table b (id text);")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_schema.up.sql"))

	// Only 0002 runs.
	mock.ExpectBegin()
	mock.ExpectExec("create table b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0002_more.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mgr := NewManager(db, dir, "")
	require.NoError(t, mgr.Up(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownRequiresHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations order by applied_at").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mgr := NewManager(db, t.TempDir(), "")
	err = mgr.Down(context.Background())
	require.EqualError(t, err, "no migrations applied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedAppliesOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_roles.sql", "insert into roles values ('admin');")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_seeds").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_roles.sql"))

	mgr := NewManager(db, "", dir)
	require.NoError(t, mgr.Seed(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
