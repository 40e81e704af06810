// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	core "github.com/forkbombeu/avdlane/internal/avd"
)

func main() {
	core.SetLogOutput(os.Stderr)
	shutdown, err := setupTracing(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "tracing disabled:", err)
		shutdown = func() {}
	}

	env := core.Detect()
	err = newRootCmd(env).Execute()
	if err != nil {
		reportError(env, os.Stderr, err)
	}
	shutdown()
	if err != nil {
		os.Exit(1)
	}
}

// reportError shows a failed command through the same UI sink as progress
// messages, so it is styled and logged like them.
func reportError(env core.Env, w io.Writer, err error) {
	ui := env.UI
	if ui == nil {
		ui = core.NewConsoleUI(env, w)
	}
	ui.Error(err.Error())
}

func newRootCmd(env core.Env) *cobra.Command {
	var sdkDir string
	root := &cobra.Command{
		Use:           "avdlane",
		Short:         "Prepare Android emulators for UI test and screenshot pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// stdout is reserved for command output such as the selected serial
			core.SetLogOutput(os.Stderr)
			if sdkDir != env.SDKRoot {
				env = env.WithSDKRoot(sdkDir)
				if explicit := os.Getenv("AVDMANAGER"); explicit != "" {
					env.AvdMgr = explicit
				}
				if explicit := os.Getenv("SDKMANAGER"); explicit != "" {
					env.SdkMgr = explicit
				}
			}
		},
	}
	root.PersistentFlags().StringVar(&sdkDir, "sdk-dir", env.SDKRoot, "Path to the Android SDK (ANDROID_SDK_DIR, ANDROID_HOME, ANDROID_SDK_ROOT, ANDROID_SDK)")

	// start
	opts := core.DefaultEmulatorOptions()
	var pkg, bootSignal string
	start := &cobra.Command{
		Use:   "start",
		Short: "Create (or reuse) and boot an AVD, then apply location and demo mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Package = core.SystemImageID(pkg)
			opts.BootSignal = core.BootSignal(bootSignal)
			res, err := core.Prepare(env, opts)
			if err != nil {
				return err
			}
			fmt.Printf("SCREENGRAB_SPECIFIC_DEVICE=%s\n", res.Serial)
			return nil
		},
	}
	sf := start.Flags()
	sf.StringVar(&pkg, "package", os.Getenv("AVD_PACKAGE"), "System image ID, e.g. system-images;android-24;google_apis;x86_64")
	sf.StringVar(&opts.Name, "name", envString("AVD_NAME", opts.Name), "AVD name")
	sf.StringVar(&opts.Device, "device", envString("AVD_DEVICE", opts.Device), "Device definition passed to avdmanager")
	sf.IntVar(&opts.Port, "port", envInt("AVD_PORT", opts.Port), "Even emulator console port")
	sf.StringVar(&opts.Location, "location", os.Getenv("AVD_LOCATION"), "Location of the emulator '<longitude> <latitude>'")
	sf.BoolVar(&opts.DemoMode, "demo-mode", envBool("AVD_DEMO_MODE", opts.DemoMode), "Set the emulator in demo mode")
	sf.BoolVar(&opts.ColdBoot, "cold-boot", envBool("AVD_COLD_BOOT", opts.ColdBoot), "Create a new AVD every run")
	sf.BoolVar(&opts.RetainPrevious, "retain-previous", envBool("AVD_RETAIN_PREVIOUS", opts.RetainPrevious), "Reuse an existing AVD built from the same image")
	sf.StringSliceVar(&opts.AdditionalOptions, "additional-option", envList("AVD_ADDITIONAL_OPTIONS"), "Extra config.ini key=value override (repeatable)")
	sf.StringSliceVar(&opts.EmulatorArgs, "emulator-arg", nil, "Extra emulator flag (repeatable)")
	sf.StringVar(&bootSignal, "boot-signal", envString("AVD_BOOT_SIGNAL", string(opts.BootSignal)), "Boot completion signal (bootcomplete, bootanim)")
	sf.DurationVar(&opts.BootTimeout, "boot-timeout", envDuration("AVD_BOOT_TIMEOUT", opts.BootTimeout), "Boot timeout")
	root.AddCommand(start)

	// disable-animations
	var animDevice string
	animCmd := &cobra.Command{
		Use:   "disable-animations",
		Short: "Set all animation scales to 0 on a connected device",
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := core.DisableAnimations(env, core.AnimationOptions{Device: animDevice})
			if err != nil {
				return err
			}
			fmt.Printf("Animations disabled on %s\n", serial)
			return nil
		},
	}
	animCmd.Flags().StringVar(&animDevice, "device", os.Getenv("FL_ANDROID_DEVICE"), "Use the device or emulator with the given serial number or qualifier")
	root.AddCommand(animCmd)

	// select-device
	var selDevice string
	selectCmd := &cobra.Command{
		Use:   "select-device",
		Short: "Print the serial adb commands should target",
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := core.SelectSerial(env, selDevice)
			if err != nil {
				return err
			}
			fmt.Println(serial)
			return nil
		},
	}
	selectCmd.Flags().StringVar(&selDevice, "device", os.Getenv("FL_ANDROID_DEVICE"), "Serial number or qualifier to match")
	root.AddCommand(selectCmd)

	// list
	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List AVDs under ANDROID_AVD_HOME",
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := core.List(env)
			if err != nil {
				return err
			}
			if listJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ls)
			}
			if len(ls) == 0 {
				fmt.Println("(no AVDs)")
				return nil
			}
			for _, i := range ls {
				fmt.Printf("%-18s %s\n  image:    %s\n  userdata: %s (%s)\n", i.Name, i.Path, i.Image, i.Userdata, units.HumanSize(float64(i.SizeBytes)))
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
	root.AddCommand(listCmd)

	// delete
	root.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an AVD (+ .ini)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return core.Delete(env, args[0])
		},
	})

	// stop
	var stopSerial string
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running emulator by --serial",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stopSerial == "" {
				return errors.New("--serial is required")
			}
			if err := core.Stop(env, stopSerial); err != nil {
				return err
			}
			fmt.Printf("Stopped %s\n", stopSerial)
			return nil
		},
	}
	stopCmd.Flags().StringVar(&stopSerial, "serial", "emulator-5554", "emulator serial")
	root.AddCommand(stopCmd)

	return root
}

func envString(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return d
	}
	return def
}

func envList(k string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
