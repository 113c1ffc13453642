package preview

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"
	"path"
	"time"

	"github.com/gruppe-adler/meh-slope/internal/render"
	"github.com/gruppe-adler/meh-slope/internal/utils"
	"github.com/gruppe-adler/meh-slope/internal/validate"
)

// Load decodes the slope raster at imagePath.
func Load(imagePath string) (image.Image, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet) {

	var timer time.Time
	start := time.Now()

	outputPtr := flagSet.String("out", "", "Path to output directory")
	inputPtr := flagSet.String("in", "", "Path to slope.png written by slopemap")

	flagSet.Parse(os.Args[2:])

	// make sure both flags are present
	if *outputPtr == "" || *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if err := validate.OutputDirectory(*outputPtr); err != nil {
		log.Fatal(err)
	}
	if !utils.IsFile(*inputPtr) {
		log.Fatal(errors.New("Input image doesn't exist"))
	}

	timer = time.Now()
	fmt.Println("▶️  Loading slope image")
	img, err := Load(*inputPtr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded slope image in", time.Since(timer).String())

	timer = time.Now()
	fmt.Println("▶️  Building preview images")
	paths, err := render.WritePreviews(*outputPtr, img)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range paths {
		fmt.Println("    ✔️  Built", path.Base(p))
	}
	fmt.Println("✔️  Built preview images in", time.Since(timer).String())

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}
