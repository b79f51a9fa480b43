// Command sqlitex is the CLI for the sqlitex embedded database adapter.
// It provides commands for inspecting schemas, running statements, and
// maintaining database files.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sqlitex/core/driver"
	"github.com/FocuswithJustin/sqlitex/internal/logging"
	"github.com/FocuswithJustin/sqlitex/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for sqlitex.
var CLI struct {
	// Global flags
	DB       string `name:"db" short:"d" help:"Database file path" type:"path"`
	Options  string `name:"options" help:"Connection option string, e.g. BUSY_TIMEOUT=200;OPEN_READONLY"`
	LogLevel string `name:"log-level" default:"info" help:"Log level (debug, info, warn, error)"`

	Tables   TablesCmd   `cmd:"" help:"List tables and views"`
	Schema   SchemaCmd   `cmd:"" help:"Show column and primary-key layout of a table"`
	Query    QueryCmd    `cmd:"" help:"Run a row-producing statement and print the rows"`
	Exec     ExecCmd     `cmd:"" help:"Run a statement without a result set"`
	Backup   BackupCmd   `cmd:"" help:"Write a compressed snapshot of the database"`
	Checksum ChecksumCmd `cmd:"" help:"Print the content hash of the database file"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// openDB opens the database named by the global flags.
func openDB() (*driver.Connection, error) {
	if CLI.DB == "" {
		return nil, fmt.Errorf("no database given, use --db")
	}
	if err := validation.ValidatePath(CLI.DB); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	conn := driver.NewConnection(driver.Config{Logger: logging.GetLogger()})
	if err := conn.Open(CLI.DB, CLI.Options); err != nil {
		return nil, fmt.Errorf("open %s: %w", CLI.DB, err)
	}
	return conn, nil
}

// TablesCmd lists catalog entries.
type TablesCmd struct {
	Views  bool `help:"Include views"`
	System bool `help:"Include system tables"`
	JSON   bool `help:"Output as JSON"`
}

func (c *TablesCmd) Run() error {
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	kinds := driver.UserTables
	if c.Views {
		kinds |= driver.Views
	}
	if c.System {
		kinds |= driver.SystemTables
	}
	names := conn.Tables(kinds)

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(names)
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

// SchemaCmd prints one table's column layout.
type SchemaCmd struct {
	Table string `arg:"" help:"Table name"`
	JSON  bool   `help:"Output as JSON"`
}

// fieldInfo is the JSON shape of one column description.
type fieldInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	Default   string `json:"default,omitempty"`
	AutoValue bool   `json:"auto_value,omitempty"`
	Primary   bool   `json:"primary,omitempty"`
}

func (c *SchemaCmd) Run() error {
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	rec := conn.Record(c.Table)
	if rec.IsEmpty() {
		return fmt.Errorf("no such table: %s", c.Table)
	}
	pk := conn.PrimaryIndex(c.Table)

	var fields []fieldInfo
	for i := 0; i < rec.Len(); i++ {
		f := rec.Field(i)
		fields = append(fields, fieldInfo{
			Name:      f.Name,
			Type:      f.Type.String(),
			Required:  f.Required,
			Default:   f.Default.String(),
			AutoValue: f.AutoValue,
			Primary:   pk.IndexOf(f.Name) >= 0,
		})
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	}
	for _, f := range fields {
		line := fmt.Sprintf("%-20s %s", f.Name, f.Type)
		if f.Required {
			line += " not null"
		}
		if f.Default != "" && f.Default != "NULL" {
			line += " default " + f.Default
		}
		if f.Primary {
			line += " primary key"
		}
		if f.AutoValue {
			line += " auto"
		}
		fmt.Println(line)
	}
	return nil
}

// QueryCmd runs a row-producing statement.
type QueryCmd struct {
	SQL  string   `arg:"" help:"Statement to run"`
	Args []string `arg:"" optional:"" help:"Positional bind values, bound as text"`
	JSON bool     `help:"Output rows as JSON objects"`
}

func (c *QueryCmd) Run() error {
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	cur := conn.CreateCursor()
	cur.SetForwardOnly(true)
	defer cur.Close()

	args := make([]driver.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = driver.Text(a)
	}
	if err := cur.Exec(c.SQL, args...); err != nil {
		return err
	}
	if !cur.IsSelect() {
		return fmt.Errorf("statement produced no rows, use exec")
	}

	names := cur.Columns().Names()
	enc := json.NewEncoder(os.Stdout)
	count := 0
	for cur.Next() {
		if c.JSON {
			row := make(map[string]any, len(names))
			for i, name := range names {
				row[name] = jsonValue(cur.Value(i))
			}
			if err := enc.Encode(row); err != nil {
				return err
			}
		} else {
			for i := range names {
				if i > 0 {
					fmt.Print("\t")
				}
				fmt.Print(cur.Value(i).String())
			}
			fmt.Println()
		}
		count++
	}
	if err := cur.LastError(); err != nil {
		return err
	}
	logging.Debug("query done", "rows", count)
	return nil
}

// jsonValue maps a driver value to its natural JSON representation.
func jsonValue(v driver.Value) any {
	switch v.Kind() {
	case driver.KindInteger:
		return v.Int()
	case driver.KindDouble:
		return v.Float()
	case driver.KindText:
		return v.Text()
	case driver.KindBlob:
		return hex.EncodeToString(v.Bytes())
	default:
		return nil
	}
}

// ExecCmd runs a statement that returns no rows.
type ExecCmd struct {
	SQL  string   `arg:"" help:"Statement to run"`
	Args []string `arg:"" optional:"" help:"Positional bind values, bound as text"`
}

func (c *ExecCmd) Run() error {
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	cur := conn.CreateCursor()
	cur.SetForwardOnly(true)
	defer cur.Close()

	args := make([]driver.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = driver.Text(a)
	}
	if err := cur.Exec(c.SQL, args...); err != nil {
		return err
	}
	fmt.Printf("affected rows: %d\n", cur.AffectedRows())
	if id, ok := cur.LastInsertID(); ok {
		fmt.Printf("last insert id: %d\n", id)
	}
	return nil
}

// BackupCmd snapshots the database into an xz-compressed file.
type BackupCmd struct {
	Out string `required:"" help:"Output path for the compressed snapshot" type:"path"`
}

func (c *BackupCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	// VACUUM INTO writes a consistent snapshot even with the database
	// in use, so the file copy below never sees a torn page.
	staging := filepath.Join(os.TempDir(), "sqlitex-backup-"+uuid.NewString()+".db")
	defer os.Remove(staging)

	cur := conn.CreateCursor()
	defer cur.Close()
	if err := cur.Exec("VACUUM INTO " + quoteLiteral(staging)); err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	in, err := os.Open(staging)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	defer out.Close()

	zw, err := xz.NewWriter(out)
	if err != nil {
		return err
	}
	n, err := io.Copy(zw, in)
	if err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	logging.Info("backup written", "out", c.Out, "raw_bytes", n)
	return nil
}

// quoteLiteral wraps s as a SQL string literal.
func quoteLiteral(s string) string {
	out := []byte{'\''}
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}

// ChecksumCmd hashes the raw database file.
type ChecksumCmd struct{}

func (c *ChecksumCmd) Run() error {
	if CLI.DB == "" {
		return fmt.Errorf("no database given, use --db")
	}
	f, err := os.Open(CLI.DB)
	if err != nil {
		return err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	fmt.Printf("%x  %s\n", h.Sum(nil), CLI.DB)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("sqlitex version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sqlitex"),
		kong.Description("Embedded SQLite adapter tooling"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.FormatText)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
