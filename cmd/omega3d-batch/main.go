// Command omega3d-batch is the headless batch driver (spec 6.3): load a
// scene JSON file, build a simulation, and step it to its stop condition
// with no rendering surface. Generalizes the load-config/build/drive-loop
// shape of the teacher's app.Run entry point, with the OpenGL window
// replaced by a plain loop over simulation.Simulation.Step.
package main

import (
	"fmt"
	"log"
	"os"

	"omega3d.dev/omega3d/scene"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "\nUsage:\n  omega3d-batch filename.json\n\n")
		return -1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Printf("reading scene file: %v", err)
		return -1
	}

	r, err := scene.Build(data, os.Stdout, os.Stderr)
	if err != nil {
		log.Printf("building simulation: %v", err)
		return -1
	}

	if err := r.Sim.CheckInitialization(); err != nil {
		log.Printf("ERROR: %v", err)
		return 1
	}

	for {
		if err := r.Sim.CheckSimulation(); err != nil {
			log.Printf("ERROR: %v", err)
			return 1
		}

		if err := r.Tick(); err != nil {
			log.Printf("ERROR: %v", err)
			return 1
		}

		if err := r.Sim.Step(); err != nil {
			log.Printf("ERROR: %v", err)
			return 1
		}

		if r.Sim.TestVsStop() {
			break
		}
	}

	r.Sim.Reset()
	log.Println("done")
	return 0
}
