// Command-line interface to a remote mosaic pixel server.
// Fetches 5d sub-volumes and writes them as packed raw bytes or Arrow IPC
// streams.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cajal-labs/mosaic/client"
	"github.com/cajal-labs/mosaic/mosaic"
	"github.com/cajal-labs/mosaic/pixels"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to the TOML configuration file.
	configFile = flag.String("config", "", "")
)

const version = "1.0.0"

const helpMessage = `
mosaic is a command-line interface to a remote microscopy pixel server

Usage: mosaic [options] <command>

      -config     =string   Path to TOML configuration file (required for fetch).
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	fetch [fetch options] <pixels id>

Fetch options:

      -x, -y, -c, -z, -t  =string   Axis range as "lo:hi" (inclusive).  Leave
                                    unset for the full axis.
      -format     =string   Output format: "raw" or "arrow" (default "raw").
      -values     (flag)    Fetch float64 voxel values instead of raw bytes.
      -o          =string   Output file (default stdout).
`

var usage = func() {
	fmt.Printf(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		mosaic.Verbose = true
		mosaic.SetLogMode(mosaic.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	command := strings.ToLower(flag.Args()[0])
	switch command {
	case "about":
		fmt.Printf("mosaic version %s\n", version)
	case "fetch":
		if err := doFetch(flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func doFetch(args []string) error {
	fetchFlags := flag.NewFlagSet("fetch", flag.ExitOnError)
	var (
		xRange = fetchFlags.String("x", "", "")
		yRange = fetchFlags.String("y", "", "")
		cRange = fetchFlags.String("c", "", "")
		zRange = fetchFlags.String("z", "", "")
		tRange = fetchFlags.String("t", "", "")
		format = fetchFlags.String("format", "raw", "")
		values = fetchFlags.Bool("values", false, "")
		output = fetchFlags.String("o", "", "")
	)
	if err := fetchFlags.Parse(args); err != nil {
		return err
	}
	if fetchFlags.NArg() != 1 {
		return fmt.Errorf("fetch needs exactly one pixels id, got %d args", fetchFlags.NArg())
	}
	pixelsID := fetchFlags.Arg(0)

	region, err := parseRegion(*xRange, *yRange, *cRange, *zRange, *tRange)
	if err != nil {
		return err
	}

	config, err := client.LoadConfig(*configFile)
	if err != nil {
		return err
	}
	conn, err := client.Dial(config)
	if err != nil {
		return err
	}
	defer conn.Close()

	img, err := conn.Pixels(pixelsID)
	if err != nil {
		return err
	}
	defer img.Close()

	out := os.Stdout
	if *output != "" {
		if out, err = os.Create(*output); err != nil {
			return err
		}
		defer out.Close()
	}

	switch {
	case *values:
		vol, err := img.ReadValues(region)
		if err != nil {
			return err
		}
		if *format == "arrow" {
			if err := pixels.WriteVolumeArrow(out, vol); err != nil {
				return err
			}
		} else {
			if err := writeValuesRaw(out, vol); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "Fetched %s of pixels %s (%s values)\n",
			vol.Bounds(), pixelsID, humanize.Comma(vol.NumVoxels()))
	default:
		vol, err := img.ReadRaw(region, img.Info().Type.Bytes())
		if err != nil {
			return err
		}
		if *format == "arrow" {
			if err := pixels.WriteRawVolumeArrow(out, vol); err != nil {
				return err
			}
		} else {
			if err := writeRawPlanes(out, vol); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "Fetched %s of pixels %s (%s)\n",
			vol.Bounds(), pixelsID, humanize.Bytes(uint64(vol.NumBytes())))
	}

	if stats := conn.CacheStats(); stats.Attempts > 0 {
		fmt.Fprintf(os.Stderr, "Tile cache: %s\n", stats)
	}
	return nil
}

func parseRegion(x, y, c, z, t string) (region mosaic.Region, err error) {
	if region.X, err = mosaic.StringToSpan(x); err != nil {
		return
	}
	if region.Y, err = mosaic.StringToSpan(y); err != nil {
		return
	}
	if region.C, err = mosaic.StringToSpan(c); err != nil {
		return
	}
	if region.Z, err = mosaic.StringToSpan(z); err != nil {
		return
	}
	region.T, err = mosaic.StringToSpan(t)
	return
}

// writeValuesRaw writes float64 values as little-endian bytes in the
// buffer's [t][z][c][y][x] order.
func writeValuesRaw(out *os.File, vol *pixels.Volume) error {
	data := make([]byte, vol.NumVoxels()*8)
	for i, v := range vol.Values() {
		mosaic.T_float64.PutValue(data, int64(i), v)
	}
	_, err := out.Write(data)
	return err
}

// writeRawPlanes writes each plane slot's packed bytes in [t][z][c] order.
func writeRawPlanes(out *os.File, vol *pixels.RawVolume) error {
	size := vol.Size()
	for t := int32(0); t < size[mosaic.AxisT]; t++ {
		for z := int32(0); z < size[mosaic.AxisZ]; z++ {
			for c := int32(0); c < size[mosaic.AxisC]; c++ {
				if _, err := out.Write(vol.Plane(c, z, t)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
