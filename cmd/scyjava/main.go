package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scijava/scyjava"
)

var (
	flagVerbose    int
	flagEndpoints  []string
	flagRepos      []string
	flagCacheDir   string
	flagM2Repo     string
	flagOffline    bool
	flagJavaVendor string
	flagJavaVer    string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scyjava",
		Short: "Resolve Maven artifacts and run Java code from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyFlags()
		},
	}

	root.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (repeatable)")
	root.PersistentFlags().StringSliceVarP(&flagEndpoints, "endpoint", "e", nil, "Maven endpoint groupId:artifactId[:version], repeatable, '+'-joinable")
	root.PersistentFlags().StringSliceVarP(&flagRepos, "repository", "r", nil, "extra Maven repository as name=url, repeatable")
	root.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "cache directory for workspaces and downloads")
	root.PersistentFlags().StringVar(&flagM2Repo, "m2-repo", "", "local Maven repository path")
	root.PersistentFlags().BoolVar(&flagOffline, "offline", false, "never fetch artifacts or Java distributions")
	root.PersistentFlags().StringVar(&flagJavaVendor, "java-vendor", "", "Java distribution vendor for managed installs")
	root.PersistentFlags().StringVar(&flagJavaVer, "java-version", "", "minimum Java version")

	root.AddCommand(resolveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(replCmd())
	root.AddCommand(infoCmd())
	root.AddCommand(versionCmd())
	root.AddCommand(freezeCmd())
	return root
}

func applyFlags() error {
	scyjava.SetVerbose(flagVerbose)

	if flagCacheDir != "" {
		scyjava.SetCacheDir(flagCacheDir)
	}
	if flagM2Repo != "" {
		scyjava.SetM2Repo(flagM2Repo)
	}
	for _, repo := range flagRepos {
		name, url, ok := splitPair(repo)
		if !ok {
			return fmt.Errorf("invalid repository %q: expected name=url", repo)
		}
		scyjava.AddRepository(name, url)
	}
	scyjava.AddEndpoints(flagEndpoints...)

	fetch := scyjava.FetchAuto
	if flagOffline {
		fetch = scyjava.FetchNever
	}
	vendor := flagJavaVendor
	version := flagJavaVer
	if vendor == "" && version == "" && !flagOffline {
		return nil
	}
	return scyjava.SetJavaConstraints(fetch, vendor, version)
}

func splitPair(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [endpoint...]",
		Short: "Resolve Maven endpoints and print the resulting classpath",
		RunE: func(cmd *cobra.Command, args []string) error {
			scyjava.AddEndpoints(args...)
			endpoints := scyjava.Endpoints()
			if len(endpoints) == 0 {
				return fmt.Errorf("no endpoints given; use positional arguments or --endpoint")
			}

			env, err := scyjava.CreateEnvironmentFromSystem()
			if err != nil {
				return err
			}
			eps, err := scyjava.ParseEndpoints(joinPlus(endpoints))
			if err != nil {
				return err
			}
			jars, err := scyjava.NewResolver(env).Resolve(eps, progressToStderr)
			if err != nil {
				return err
			}
			for _, jar := range jars {
				fmt.Println(jar)
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <endpoints> <main-class> [args...]",
		Short: "Resolve Maven endpoints and run a main class with java",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := scyjava.CreateEnvironmentFromSystem()
			if err != nil {
				return err
			}
			eps, err := scyjava.ParseEndpoints(args[0])
			if err != nil {
				return err
			}
			jars, err := scyjava.NewResolver(env).Resolve(eps, progressToStderr)
			if err != nil {
				return err
			}

			javaArgs := []string{"-cp", strings.Join(jars, string(os.PathListSeparator)), args[1]}
			javaArgs = append(javaArgs, args[2:]...)
			java := exec.Command(env.JavaPath, javaArgs...)
			java.Stdin = os.Stdin
			java.Stdout = os.Stdout
			java.Stderr = os.Stderr
			java.Env = append(os.Environ(), "JAVA_HOME="+env.JavaHome)
			return java.Run()
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start a jshell session with the resolved endpoints on the classpath",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := scyjava.CreateEnvironmentFromSystem()
			if err != nil {
				return err
			}

			var classpath []string
			if endpoints := scyjava.Endpoints(); len(endpoints) > 0 {
				eps, err := scyjava.ParseEndpoints(joinPlus(endpoints))
				if err != nil {
					return err
				}
				classpath, err = scyjava.NewResolver(env).Resolve(eps, progressToStderr)
				if err != nil {
					return err
				}
			}

			if env.JShellPath == "" {
				return fmt.Errorf("no jshell executable in %s (JRE-only installation?)", env.JavaHome)
			}

			// Hand the terminal to jshell until it exits.
			var jshellArgs []string
			if len(classpath) > 0 {
				jshellArgs = append(jshellArgs, "--class-path",
					strings.Join(classpath, string(os.PathListSeparator)))
			}
			jshell := exec.Command(env.JShellPath, jshellArgs...)
			jshell.Stdin = os.Stdin
			jshell.Stdout = os.Stdout
			jshell.Stderr = os.Stderr
			jshell.Env = append(os.Environ(), "JAVA_HOME="+env.JavaHome)
			return jshell.Run()
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the detected Java and Maven installations",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := scyjava.CreateEnvironmentFromSystem()
			if err != nil {
				return err
			}
			fmt.Println("java.home:    ", env.JavaHome)
			fmt.Println("java.version: ", env.JavaVersion.String())
			if env.JShellPath != "" {
				fmt.Println("jshell:       ", env.JShellPath)
			}
			if env.MavenPath != "" {
				fmt.Println("maven:        ", env.MavenPath)
				fmt.Println("maven.version:", env.MavenVersion.String())
			}
			fmt.Println("cache-dir:    ", scyjava.CacheDir())
			fmt.Println("m2-repo:      ", scyjava.M2Repo())
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scyjava, Java and Maven versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			mod := scyjava.ModuleVersion("github.com/scijava/scyjava")
			if mod == "" {
				mod = "(devel)"
			}
			fmt.Println("scyjava:", mod)

			env, err := scyjava.CreateEnvironmentFromSystem()
			if err != nil {
				return err
			}
			fmt.Println("java:   ", env.JavaVersion.String())
			if env.MavenPath != "" {
				fmt.Println("maven:  ", env.MavenVersion.String())
			}
			return nil
		},
	}
}

func freezeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "freeze <file>",
		Short: "Write the environment and endpoint configuration to a JSON spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := scyjava.CreateEnvironmentFromSystem()
			if err != nil {
				return err
			}
			return env.FreezeToFile(args[0])
		},
	}
}

func joinPlus(endpoints []string) string {
	joined := ""
	for i, ep := range endpoints {
		if i > 0 {
			joined += "+"
		}
		joined += ep
	}
	return joined
}

func progressToStderr(message string, current, total int64) {
	if total > 0 {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d", message, current, total)
		if current >= total {
			fmt.Fprintln(os.Stderr)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s", message)
}
