package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put [object-id] <data>",
	Short: "Store an object in the bootstrapped pool",
	Long: `Store an object in the bootstrapped pool.

If object-id is omitted, a random one is generated (google/uuid) so
the object can still be addressed by the caller afterward.
`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return errors.New("expected: put [object-id] <data>")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_, r := bootstrap()

		var objectID, data string
		if len(args) == 2 {
			objectID, data = args[0], args[1]
		} else {
			objectID, data = uuid.NewString(), args[0]
		}

		result, err := r.PutObject(poolName, objectID, []byte(data))
		if err != nil {
			panic(errors.Wrapf(err, "put %s/%s", poolName, objectID))
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s/%s -> pg %s, replicas %v (%d bytes)\n",
			green("stored"), poolName, result.ObjectID, result.PGID, result.Replicas, result.SizeBytes)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <object-id>",
	Short: "Retrieve an object from the bootstrapped pool",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("expected: get <object-id>")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_, r := bootstrap()

		objectID := args[0]
		data, meta, ok := r.GetObject(poolName, objectID)
		if !ok {
			fmt.Fprintf(os.Stderr, "%s %s/%s: not found\n", color.New(color.FgRed).Sprint("absent"), poolName, objectID)
			os.Exit(1)
		}

		fmt.Printf("%s (%d bytes, checksum %s, pg %s)\n%s\n",
			objectID, meta.SizeBytes, meta.Checksum, meta.PGID, data)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <object-id>",
	Short: "Delete an object from the bootstrapped pool",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("expected: rm <object-id>")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_, r := bootstrap()

		objectID := args[0]
		if !r.DeleteObject(poolName, objectID) {
			fmt.Fprintf(os.Stderr, "%s/%s: not found\n", poolName, objectID)
			os.Exit(1)
		}
		fmt.Printf("%s removed\n", objectID)
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the objects in the bootstrapped pool",
	Run: func(cmd *cobra.Command, args []string) {
		_, r := bootstrap()

		list, err := r.ListObjects(poolName)
		if err != nil {
			panic(errors.Wrapf(err, "ls %s", poolName))
		}

		for _, obj := range list {
			health := color.New(color.FgGreen).SprintFunc()
			if obj.HealthyReplicas < obj.TotalReplicas {
				health = color.New(color.FgYellow).SprintFunc()
			}
			fmt.Printf("%-32s %8d bytes  pg %-8s  %s\n",
				obj.ObjectID, obj.SizeBytes, obj.PGID,
				health(fmt.Sprintf("%d/%d replicas healthy", obj.HealthyReplicas, obj.TotalReplicas)))
		}
	},
}
