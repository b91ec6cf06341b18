// airserver serves climate station samples out of InfluxDB to the airview
// viewer: combined readings for a named span or an explicit window, plus the
// current CO2 value, optionally behind a shared bearer password.
package main

import (
	"fmt"
	"os"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"airview/src/sensor"
	"airview/src/service"
)

func main() {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		sensor.SetLogLevel(lvl)
	}

	cfg, err := service.LoadConfig()
	if err != nil {
		sensor.Errorf("config: %v", err)
		os.Exit(1)
	}

	client := influxdb2.NewClient(cfg.InfluxHost, cfg.InfluxToken)
	defer client.Close()

	store := service.NewInfluxStore(client, cfg.InfluxOrg, cfg.InfluxBucket, cfg.Measurement)
	router := service.NewRouter(store, cfg.Password)

	if cfg.Password == "" {
		sensor.Warnf("HTTP_PASSWORD not set, serving unauthenticated")
	}
	sensor.Infof("starting server on port %d (bucket %s, measurement %s, log level %s)",
		cfg.HTTPPort, cfg.InfluxBucket, cfg.Measurement, sensor.GetLogLevel())
	if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		sensor.Errorf("server: %v", err)
		os.Exit(1)
	}
}
