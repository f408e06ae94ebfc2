package snowflake

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/loykin/snowup/internal/store"
	sf "github.com/snowflakedb/gosnowflake"
)

// compile-time interface checks
var (
	_ store.Dialect         = (*Dialect)(nil)
	_ store.DatabaseCreator = (*Dialect)(nil)
)

func TestDialect_JournalSQL(t *testing.T) {
	d := NewDialect()

	create := d.CreateTableSQL("PUBLIC", "SchemaVersions")
	for _, want := range []string{
		`create table if not exists "PUBLIC"."SchemaVersions"`,
		`"Id" int not null primary key AUTOINCREMENT`,
		`"ScriptName" string(255) not null`,
		`"Applied" TIMESTAMP_LTZ(9) not null DEFAULT(CURRENT_TIMESTAMP)`,
	} {
		if !strings.Contains(create, want) {
			t.Errorf("CreateTableSQL missing %q in:\n%s", want, create)
		}
	}

	if got, want := d.SelectSQL("", "SchemaVersions"), `select "ScriptName" from "SchemaVersions" order by "ScriptName"`; got != want {
		t.Errorf("SelectSQL() = %s, want %s", got, want)
	}
	insert := d.InsertSQL("S", "T")
	if !strings.HasPrefix(insert, `insert into "S"."T" ("ScriptName", "Applied") values (?, to_timestamp_ltz(?,`) {
		t.Errorf("InsertSQL() = %s", insert)
	}
	if got, want := d.VerifySchemaSQL("My Schema"), `CREATE SCHEMA IF NOT EXISTS "My Schema"`; got != want {
		t.Errorf("VerifySchemaSQL() = %s, want %s", got, want)
	}
}

func TestDialect_TableExistsSQL(t *testing.T) {
	d := NewDialect()
	q, args := d.TableExistsSQL("", "SchemaVersions")
	if !strings.Contains(q, "current_schema()") || len(args) != 1 {
		t.Errorf("unqualified TableExistsSQL = %s %v", q, args)
	}
	q, args = d.TableExistsSQL("PUBLIC", "SchemaVersions")
	if strings.Contains(q, "current_schema()") || len(args) != 2 || args[0] != "PUBLIC" {
		t.Errorf("qualified TableExistsSQL = %s %v", q, args)
	}
}

func TestDialect_FormatTime(t *testing.T) {
	d := NewDialect()
	ts := time.Date(2023, 12, 25, 10, 30, 45, 123456789, time.FixedZone("KST", 9*3600))
	got := d.FormatTime(ts)
	if got != "2023-12-25T10:30:45.123456789+09:00" {
		t.Errorf("FormatTime() = %v", got)
	}
}

func TestDialect_Classify(t *testing.T) {
	d := NewDialect()
	err := fmt.Errorf("exec: %w", &sf.SnowflakeError{Number: 2003, SQLState: "02000", Message: "Object does not exist"})
	code, msg, ok := d.Classify(err)
	if !ok || code != "2003" || msg != "Object does not exist" {
		t.Errorf("Classify() = %q,%q,%v", code, msg, ok)
	}
	if _, _, ok := d.Classify(errors.New("boom")); ok {
		t.Errorf("Classify() should not recognise plain errors")
	}
}

func TestDialect_SplitDatabase(t *testing.T) {
	d := NewDialect()
	dsn, err := sf.DSN(&sf.Config{Account: "acme", User: "bob", Password: "pw", Database: "ANALYTICS", Schema: "PUBLIC"})
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	name, server, err := d.SplitDatabase(dsn)
	if err != nil {
		t.Fatalf("SplitDatabase: %v", err)
	}
	if name != "ANALYTICS" {
		t.Errorf("database = %q, want ANALYTICS", name)
	}
	cfg, err := sf.ParseDSN(server)
	if err != nil {
		t.Fatalf("ParseDSN(server): %v", err)
	}
	if cfg.Database != "" || cfg.Schema != "" {
		t.Errorf("server dsn still selects %q.%q", cfg.Database, cfg.Schema)
	}
	if got, want := d.CreateDatabaseSQL(name), `create database IF NOT EXISTS "ANALYTICS"`; got != want {
		t.Errorf("CreateDatabaseSQL() = %s, want %s", got, want)
	}
}

func TestDialect_SplitDatabase_NoDatabase(t *testing.T) {
	dsn, err := sf.DSN(&sf.Config{Account: "acme", User: "bob", Password: "pw"})
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	if _, _, err := NewDialect().SplitDatabase(dsn); err == nil {
		t.Fatalf("expected error when dsn names no database")
	}
}
