package main

import (
	"os"

	"github.com/achilleasa/gobvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "gobvh"
	app.Usage = "build and query BVH acceleration structures"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "info",
			Usage: "build acceleration structures for a scene and print statistics",
			Description: `
Parse triangle geometry from a wavefront obj file, build the primary BVH and
its compressed re-encoding and print size/shape statistics for both.`,
			ArgsUsage: "scene_file.obj",
			Action:    cmd.Info,
		},
		{
			Name:      "bench",
			Usage:     "measure ray intersection throughput for a scene",
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 1000000,
					Usage: "number of rays to dispatch",
				},
				cli.BoolFlag{
					Name:  "primary",
					Usage: "traverse the primary structure instead of the compressed one",
				},
			},
			Action: cmd.Bench,
		},
	}

	app.Run(os.Args)
}
