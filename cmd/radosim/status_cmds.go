package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cephlite/radosim/internal/metrics"
	"github.com/cephlite/radosim/internal/rados"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print cluster health (use --detail for the per-pool/per-osd breakdown)",
	Run: func(cmd *cobra.Command, args []string) {
		mon, _ := bootstrap()
		detail := mustGetBool(cmd, "detail")

		status := mon.ClusterStatus()
		healthColor := color.New(color.FgGreen)
		if status.Health != "HEALTH_OK" {
			healthColor = color.New(color.FgRed)
		}
		fmt.Printf("%s  epoch %d  osds %d/%d up  pgs %d active+clean / %d\n",
			healthColor.Sprint(status.Health), status.Epoch, status.OSDsUp, status.OSDsTotal,
			status.PGsActiveClean, status.PGsTotal)

		if !detail {
			return
		}

		ds := mon.DetailedStatus()
		fmt.Println("\npools:")
		for _, p := range ds.Pools {
			fmt.Printf("  %-16s size=%d min_size=%d pg_num=%d objects=%d\n",
				p.Name, p.Size, p.MinSize, p.PGNum, p.Objects)
		}

		fmt.Println("\nosds:")
		for _, o := range ds.OSDs {
			c := color.New(color.FgGreen)
			switch o.State {
			case "down":
				c = color.New(color.FgRed)
			case "out":
				c = color.New(color.FgYellow)
			}
			fmt.Printf("  osd.%-4d rack=%-8s weight=%.2f pgs=%-4d heartbeat=%s %s\n",
				o.ID, o.Rack, o.Weight, o.PGs, o.LastHeartbeat.Format("15:04:05"), c.Sprint(o.State))
		}

		fmt.Println("\npg states:")
		for state, count := range ds.PGStates {
			fmt.Printf("  %-18s %d\n", state, count)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bootstrap a cluster and keep it resident, serving /status and /metrics over HTTP",
	Long: `Bootstrap a cluster and keep it resident, serving /status and /metrics
over HTTP for as long as the process runs. Unlike the other
subcommands, this is the one way to observe a single simulated
cluster's state across more than one request, since radosim otherwise
rebuilds the cluster fresh on every invocation.
`,
	Run: func(cmd *cobra.Command, args []string) {
		mon, _ := bootstrap()
		addr := mustGetString(cmd, "http")

		recorder := metrics.NewObjectRecorder()
		r := rados.NewWithRecorder(mon, recorder)

		registry := prometheus.NewRegistry()
		registry.MustRegister(metrics.NewClusterCollector(mon))
		for _, c := range recorder.Collectors() {
			registry.MustRegister(c)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(mon.DetailedStatus()); err != nil {
				fmt.Printf("error encoding status response: %v\n", err)
			}
		})
		mux.HandleFunc("/objects/", objectHandler(r))

		fmt.Printf("serving on %s (/status, /metrics, /objects/<object-id>)\n", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			panic(errors.Wrap(err, "serve"))
		}
	},
}

// objectHandler exposes put/get/delete over HTTP against the single
// pool this process was bootstrapped with, purely so "serve" has a way
// to exercise internal/rados across multiple requests.
func objectHandler(r *rados.RADOS) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		objectID := strings.TrimPrefix(req.URL.Path, "/objects/")
		if objectID == "" {
			http.Error(w, "object id required", http.StatusBadRequest)
			return
		}

		switch req.Method {
		case http.MethodPut:
			data, err := io.ReadAll(req.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			result, err := r.PutObject(poolName, objectID, data)
			if err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(result); err != nil {
				fmt.Printf("error encoding put response for %s: %v\n", objectID, err)
			}
		case http.MethodGet:
			data, meta, ok := r.GetObject(poolName, objectID)
			if !ok {
				http.NotFound(w, req)
				return
			}
			w.Header().Set("X-Checksum", meta.Checksum)
			if _, err := w.Write(data); err != nil {
				fmt.Printf("error writing get response for %s: %v\n", objectID, err)
			}
		case http.MethodDelete:
			if !r.DeleteObject(poolName, objectID) {
				http.NotFound(w, req)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func init() {
	statusCmd.Flags().Bool("detail", false, "print the per-pool/per-osd/per-pg-state breakdown")
	serveCmd.Flags().String("http", ":8080", "address to serve /status and /metrics on")
}
