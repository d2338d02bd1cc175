package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"voro-editor/internal/app"
	"voro-editor/internal/generate"
	"voro-editor/internal/snapshot"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"
)

type snapshotInfo struct {
	File    string      `json:"file"`
	Bytes   int         `json:"bytes"`
	Min     [3]float32  `json:"min"`
	Max     [3]float32  `json:"max"`
	Cells   int         `json:"cells"`
	ByType  map[int]int `json:"by_type"`
	Palette []string    `json:"palette"`
}

func newInfoCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "info <snapshot>",
		Short: "Describe a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			snap, err := snapshot.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			info := describe(args[0], data, snap)
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "File:    %s (%d bytes)\n", info.File, info.Bytes)
			fmt.Fprintf(out, "Bounds:  (%g, %g, %g) - (%g, %g, %g)\n",
				info.Min[0], info.Min[1], info.Min[2], info.Max[0], info.Max[1], info.Max[2])
			fmt.Fprintf(out, "Cells:   %d\n", info.Cells)
			types := make([]int, 0, len(info.ByType))
			for t := range info.ByType {
				types = append(types, t)
			}
			sort.Ints(types)
			for _, t := range types {
				fmt.Fprintf(out, "  type %-3d %d\n", t, info.ByType[t])
			}
			fmt.Fprintf(out, "Palette: %d entries\n", len(info.Palette))
			for i, c := range info.Palette {
				fmt.Fprintf(out, "  %-3d %s\n", i+1, c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func describe(name string, data []byte, snap snapshot.Snapshot) snapshotInfo {
	info := snapshotInfo{
		File:   name,
		Bytes:  len(data),
		Min:    snap.Min,
		Max:    snap.Max,
		Cells:  len(snap.Cells),
		ByType: snap.CountsByType(),
	}
	for _, c := range snap.Palette {
		n := colorutil.ToNRGBA(c)
		info.Palette = append(info.Palette, fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B))
	}
	return info
}

func newMeshCmd() *cobra.Command {
	var maxTriangles int
	cmd := &cobra.Command{
		Use:   "mesh <snapshot> <out.stl>",
		Short: "Export the triangle mesh of a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			limits := app.DefaultLimits()
			limits.MaxTriangles = maxTriangles
			state := app.NewState(app.Options{Limits: limits, Logger: quietLogger()})
			defer state.Close()
			if err := state.LoadSnapshot(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			mesh := state.ExportTriangleMeshBinary()
			if err := os.WriteFile(args[1], mesh, 0644); err != nil {
				return err
			}
			n, _ := snapshot.TriangleMeshCount(mesh)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d triangles to %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTriangles, "max-triangles", app.DefaultMaxTriangles, "Triangle budget")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	params := generate.DefaultParams()
	var kind string
	var half float64
	var output string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a procedural scene snapshot",
		Long: `Generate a procedural scene snapshot.

Examples:
  vorotool generate -o cloud.voro --kind sphere --count 500
  vorotool generate -o grid.voro --kind grid --count 64 --fill 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Kind = generate.Kind(kind)
			state := app.NewState(app.Options{Bounds: geometry.Cube(half), Logger: quietLogger()})
			defer state.Close()
			if err := state.Generate(params); err != nil {
				return err
			}
			if err := os.WriteFile(output, state.ExportSnapshot(), 0644); err != nil {
				return err
			}
			st := state.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cells (%d active) to %s\n", st.Cells, st.Active, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(params.Kind), "Distribution: uniform, grid, sphere or spiral")
	cmd.Flags().IntVarP(&params.Count, "count", "n", params.Count, "Number of cells")
	cmd.Flags().Int64Var(&params.Seed, "seed", params.Seed, "Random seed")
	cmd.Flags().Float64Var(&params.Fill, "fill", params.Fill, "Percentage of active cells")
	cmd.Flags().Float64Var(&half, "half", 10, "Half size of the bounding cube")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output snapshot file (required)")
	cmd.MarkFlagRequired("output")
	return cmd
}
