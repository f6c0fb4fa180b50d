package mapcoreutil

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/shaneosullivan-maps/mapcore/formats/voronoifile"
	"github.com/shaneosullivan-maps/mapcore/mapcore"
)

func loadMap(path, format string, log *logrus.Logger) (*mapcore.MapCore, error) {
	fmtr, err := lookupFormat(format)
	if err != nil {
		return nil, err
	}
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	frag, err := fmtr.load(f)
	if err != nil {
		return nil, fmt.Errorf("mapcore: parsing %q as %s: %w", path, format, err)
	}
	return mapcore.LoadFragment(frag, log)
}

func saveMap(mc *mapcore.MapCore, path, format string) error {
	fmtr, err := lookupFormat(format)
	if err != nil {
		return err
	}
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fmtr.save(f, mc.ExportFragment()); err != nil {
		return fmt.Errorf("mapcore: writing %q as %s: %w", path, format, err)
	}
	return nil
}

// RunConvert loads inPath as inFormat and saves it as outFormat to
// outPath, the way MapManagerLibrary's command-line conversion tool
// chains one translator's load into another's save.
func RunConvert(inPath, inFormat, outPath, outFormat string, log *logrus.Logger) error {
	mc, err := loadMap(inPath, inFormat, log)
	if err != nil {
		return err
	}
	return saveMap(mc, outPath, outFormat)
}

// RunInfo loads inPath and returns a human-readable summary of its
// resolution, grid bounds and vector object count.
func RunInfo(inPath, inFormat string, log *logrus.Logger) (string, error) {
	mc, err := loadMap(inPath, inFormat, log)
	if err != nil {
		return "", err
	}
	frag := mc.ExportFragment()
	bounds := "empty"
	if frag.Grid != nil {
		if b := frag.Grid.UpdatedBounds(); !b.Empty() {
			bounds = fmt.Sprintf("(%d,%d)-(%d,%d)", b.MinX, b.MinY, b.MaxX, b.MaxY)
		}
	}
	return fmt.Sprintf("resolution: %d mm/cell\nbounds: %s\nvector objects: %d",
		mc.Resolution(), bounds, len(frag.Objects)), nil
}

// RunCspace loads inPath, dilates cells in [lo,hi] outward by distMm,
// and saves the result to outPath as outFormat.
func RunCspace(inPath, inFormat, outPath, outFormat string, lo, hi float32, distMm float64, log *logrus.Logger) error {
	mc, err := loadMap(inPath, inFormat, log)
	if err != nil {
		return err
	}
	if err := validateRange("lo/hi", lo, hi); err != nil {
		return err
	}
	mc.GenerateCSpaceSimple(lo, hi, distMm)
	return saveMap(mc, outPath, outFormat)
}

// RunVoronoi loads inPath, reduces its occupied boundaries to merged
// Voronoi line segments and writes them to outPath in voronoifile
// format.
func RunVoronoi(inPath, inFormat, outPath string, occLo, occHi float32, dMin float64, log *logrus.Logger) error {
	mc, err := loadMap(inPath, inFormat, log)
	if err != nil {
		return err
	}
	if err := validateRange("occ-lo/occ-hi", occLo, occHi); err != nil {
		return err
	}
	lines := mc.ReduceToVoronoiLines(occLo, occHi, dMin)
	f, err := createOutput(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := voronoifile.SaveLines(f, lines); err != nil {
		return fmt.Errorf("mapcore: writing %q: %w", outPath, err)
	}
	return nil
}
