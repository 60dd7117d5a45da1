package migration

import (
	"flag"
	"testing"

	"github.com/go-pg/migrations/v8"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
)

func TestRun_SkipsWithoutDatabase(t *testing.T) {
	app := cli.NewApp()
	set := flag.NewFlagSet("test", 0)
	c := cli.NewContext(app, set, nil)

	pg := cs.NewPG(c)
	defer pg.Close()

	r := NewRunner(pg, migrations.NewCollection())
	if err := r.Run("up"); err != nil {
		t.Fatalf("expected a no-op without a database, got %v", err)
	}
}
