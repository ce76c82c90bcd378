// Command grovedb-cli is a thin exerciser over package grove — insert,
// get, prove, verify, and checkpoint a GroveDB instance from a terminal.
// It is explicitly a non-core concern (spec.md §1 scopes "the
// command-line harness" out of the core), built with
// github.com/urfave/cli/v2 the way ethereum-go-ethereum's and
// AKJUS-bsc-erigon's own command trees are.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/grovedb/grovedb/config"
	"github.com/grovedb/grovedb/element"
	"github.com/grovedb/grovedb/grove"
	"github.com/grovedb/grovedb/hash"
	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/query"
	levelstore "github.com/grovedb/grovedb/storage/leveldb"
	memstore "github.com/grovedb/grovedb/storage/memory"
	pebblestore "github.com/grovedb/grovedb/storage/pebble"
)

func main() {
	app := &cli.App{
		Name:  "grovedb-cli",
		Usage: "exercise a GroveDB instance: insert, get, prove, verify, checkpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a GroveDB config file"},
			&cli.StringFlag{Name: "backend-path", Usage: "directory the storage backend opens"},
		},
		Commands: []*cli.Command{
			insertCommand,
			getCommand,
			proveCommand,
			verifyCommand,
			checkpointCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("grovedb-cli: command failed")
	}
}

// loadConfig resolves the config/backend-path flags the same way across
// every subcommand, using config.Load's viper-backed file/env/flags stack.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), viper.New())
	if err != nil {
		return nil, err
	}
	if p := c.String("backend-path"); p != "" {
		cfg.BackendPath = p
	}
	return cfg, nil
}

func openDatabase(c *cli.Context) (*grove.Database, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	merk.SetTrunkHeight(cfg.ChunkTrunkHeight)
	opts := []grove.Option{grove.WithMaxReferenceHops(cfg.MaxReferenceHops)}
	if cfg.MetricsEnabled {
		opts = append(opts, grove.WithMetrics(grove.NewMetrics(prometheusRegisterer())))
	}

	switch cfg.Backend {
	case config.BackendLevelDB:
		backend, err := levelstore.Open(cfg.BackendPath)
		if err != nil {
			return nil, err
		}
		return grove.OpenWithBackend(backend, opts...), nil
	case config.BackendMemory:
		return grove.OpenWithBackend(memstore.Open(), opts...), nil
	default:
		backend, err := pebblestore.Open(cfg.BackendPath)
		if err != nil {
			return nil, err
		}
		return grove.OpenWithBackend(backend, opts...), nil
	}
}

// splitPath turns a "/"-separated command-line path argument into the
// ordered path components grove.Database's path-taking methods expect. An
// empty string yields the empty (root-level) path.
func splitPath(raw string) [][]byte {
	if raw == "" {
		return [][]byte{}
	}
	parts := bytes.Split([]byte(raw), []byte("/"))
	out := make([][]byte, len(parts))
	copy(out, parts)
	return out
}

var insertCommand = &cli.Command{
	Name:      "insert",
	Usage:     "insert an item element at path/key",
	ArgsUsage: "<path> <key> <value>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return cli.Exit("usage: grovedb-cli insert <path> <key> <value>", 1)
		}
		db, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()

		path := splitPath(c.Args().Get(0))
		key := []byte(c.Args().Get(1))
		value := []byte(c.Args().Get(2))
		if err := db.Insert(c.Context, path, key, element.NewItem(value)); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "get the element at path/key, following References",
	ArgsUsage: "<path> <key>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: grovedb-cli get <path> <key>", 1)
		}
		db, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()

		path := splitPath(c.Args().Get(0))
		key := []byte(c.Args().Get(1))
		el, err := db.Get(c.Context, path, key)
		if err != nil {
			return err
		}
		switch el.Kind {
		case element.KindItem:
			fmt.Printf("item: %s\n", el.Item)
		case element.KindTree:
			fmt.Printf("tree: %s\n", el.Tree.Hex())
		case element.KindReference:
			fmt.Printf("reference: %v\n", el.Reference)
		}
		return nil
	},
}

var proveCommand = &cli.Command{
	Name:      "prove",
	Usage:     "prove every key in path exists, writing the proof blobs to stdout as hex, one per line",
	ArgsUsage: "<path>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: grovedb-cli prove <path>", 1)
		}
		db, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()

		path := splitPath(c.Args().Get(0))
		q := query.New()
		q.InsertItem(query.RangeFull())
		blobs, err := db.Prove(c.Context, path, query.SizedQuery{Query: q})
		if err != nil {
			return err
		}
		for _, blob := range blobs {
			fmt.Println(hex.EncodeToString(blob))
		}
		return nil
	},
}

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "verify hex-encoded proof blobs (from stdin, one per line) against a trusted root hash",
	ArgsUsage: "<path> <trusted-root-hex>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: grovedb-cli verify <path> <trusted-root-hex>", 1)
		}
		path := splitPath(c.Args().Get(0))
		rootBytes, err := hex.DecodeString(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("grovedb-cli: decode trusted root: %w", err)
		}
		root, err := hash.FromBytes(rootBytes)
		if err != nil {
			return err
		}

		blobs, err := readHexLines(os.Stdin)
		if err != nil {
			return err
		}

		finalRoot, results, err := grove.ExecuteProof(path, blobs, root)
		if err != nil {
			return err
		}
		fmt.Printf("verified, final root %s, %d entries\n", finalRoot.Hex(), len(results))
		return nil
	},
}

var checkpointCommand = &cli.Command{
	Name:      "checkpoint",
	Usage:     "create a point-in-time checkpoint at dest-dir",
	ArgsUsage: "<dest-dir>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: grovedb-cli checkpoint <dest-dir>", 1)
		}
		db, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Checkpoint(c.Args().Get(0)); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}
