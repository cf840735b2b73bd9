// Command stabilizer-sim drives the stabilizer with a synthetic static
// double-support reference for a fixed number of ticks, logging each tick
// to a binary tick log: a minimal standalone driver for exercising the
// core pipeline outside the full robot stack.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/contact"
	"lipm-stabilizer-go/spatial"
	"lipm-stabilizer-go/stabilizer"
	"lipm-stabilizer-go/telemetry"
	"lipm-stabilizer-go/wrench"
)

func main() {
	mass := flag.Float64("mass", 38.0, "robot mass, kg")
	dt := flag.Float64("dt", 0.005, "tick period, s")
	height := flag.Float64("height", 0.78, "static CoM height, m")
	ticks := flag.Int("ticks", 1000, "number of ticks to simulate")
	out := flag.String("out", "sim.bin", "output tick log path")
	cfgPath := flag.String("config", "", "optional JSON config override")
	wsAddr := flag.String("telemetry-addr", "", "optional address to serve live websocket telemetry, e.g. :8080")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	s := stabilizer.New(*mass, *dt)
	s.Configure(cfg)
	s.Enable()
	leftPose := spatial.Pose{Rotation: spatial.IdentityRotation, Position: spatial.Vec3{X: 0.09}}
	rightPose := spatial.Pose{Rotation: spatial.IdentityRotation, Position: spatial.Vec3{X: -0.09}}
	ankleHeight := spatial.Vec3{Z: 0.105} // sole-to-ankle offset, a typical real foot's dimension
	s.SetContacts(contact.NewMap(
		contact.Entry{State: contact.Left, Contact: contact.Contact{
			AnklePose: leftPose, HalfLength: 0.1, HalfWidth: 0.1, Friction: 0.7, SurfaceToAnkle: ankleHeight,
		}},
		contact.Entry{State: contact.Right, Contact: contact.Contact{
			AnklePose: rightPose, HalfLength: 0.1, HalfWidth: 0.1, Friction: 0.7, SurfaceToAnkle: ankleHeight,
		}},
	))
	if err := s.StaticTarget(spatial.Vec3{Z: *height}); err != nil {
		logrus.WithError(err).Fatal("invalid static target")
	}

	if *wsAddr != "" {
		hub := telemetry.NewHub()
		go hub.Run()
		s.SetTelemetryHub(hub)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			if err := http.ListenAndServe(*wsAddr, mux); err != nil {
				logrus.WithError(err).Error("telemetry server exited")
			}
		}()
		logrus.Infof("serving live telemetry on ws://%s/ws", *wsAddr)
	}

	w, err := telemetry.NewWriter(*out)
	if err != nil {
		logrus.WithError(err).Fatal("open tick log")
	}
	defer w.Close()

	halfWeight := *mass * 9.80665 / 2
	t := 0.0
	for i := 0; i < *ticks; i++ {
		s.SetMeasurement(spatial.Vec3{Z: *height}, spatial.Zero3)
		s.SetFootMeasurement(contact.Left, stabilizer.FootMeasurement{
			Wrench: wrench.Wrench{Force: spatial.Vec3{Z: halfWeight}},
			Pose:   leftPose,
		})
		s.SetFootMeasurement(contact.Right, stabilizer.FootMeasurement{
			Wrench: wrench.Wrench{Force: spatial.Vec3{Z: halfWeight}},
			Pose:   rightPose,
		})
		s.Run()

		dcmv := s.MeasuredDCM()
		zmp, _ := s.MeasuredZMP()
		rec := telemetry.TickRecord{
			TimestampSec:  t,
			State:         uint32(s.State()),
			MeasuredDCM:   [3]float64{dcmv.X, dcmv.Y, dcmv.Z},
			MeasuredZMP:   [3]float64{zmp.X, zmp.Y, zmp.Z},
			LeftFootRatio: s.LeftFootRatio(),
		}
		if err := w.Write(rec); err != nil {
			logrus.WithError(err).Fatal("write tick")
		}
		t += *dt
	}

	logrus.Infof("simulated %d ticks to %s", *ticks, *out)
}
