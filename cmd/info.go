package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/achilleasa/gobvh/asset"
	"github.com/achilleasa/gobvh/bvh"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build acceleration structures for a wavefront object file and print their
// vital statistics.
func Info(ctx *cli.Context) {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		logger.Error("info: expected a single scene_file.obj argument")
		os.Exit(1)
	}

	vertices, triCount, err := asset.ReadWavefrontFile(ctx.Args().First())
	if err != nil {
		logger.Errorf("info: %s", err.Error())
		os.Exit(1)
	}

	b := bvh.Build(vertices, triCount)
	c := bvh.Compress(b)
	stats := b.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Structure", "Metric", "Value"})
	table.Append([]string{"Primary", "Triangles", fmt.Sprintf("%d", triCount)})
	table.Append([]string{"", "Nodes", fmt.Sprintf("%d", stats.Nodes)})
	table.Append([]string{"", "Leafs", fmt.Sprintf("%d", stats.Leafs)})
	table.Append([]string{"", "Max depth", fmt.Sprintf("%d", stats.MaxDepth)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Compressed", "Node blocks", fmt.Sprintf("%d", c.UsedNodeBlocks())})
	table.Append([]string{"", "Node bytes", fmt.Sprintf("%d", c.NodeByteSize())})
	table.Append([]string{"", "Triangle bytes", fmt.Sprintf("%d", c.TriByteSize())})
	table.Render()

	fmt.Println(buf.String())
}
