/* Jacobin VM -- A Java virtual machine
 * © Copyright 2021 by Andrew Binstock. All rights reserved
 * Licensed under Mozilla Public License 2.0 (MPL-2.0)
 */

// Command klover is the VM's entry point: boot the three actors (CLD,
// metaspace, OOP storage), parse the command line
// (`klover [options] <main-class> [args...]`, with `--Xmx <size>`),
// load the requested main class, and interpret its `main` method.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/klover-go/klover/classloader"
	"github.com/klover-go/klover/cld"
	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/heap"
	"github.com/klover-go/klover/interpreter"
	"github.com/klover-go/klover/jvm"
	"github.com/klover-go/klover/metaspace"
	"github.com/klover-go/klover/object"
	"github.com/klover-go/klover/oopstorage"
	"github.com/klover-go/klover/shutdown"
	"github.com/klover-go/klover/thread"
	"github.com/klover-go/klover/trace"
	"github.com/klover-go/klover/vmflags"
)

const versionString = "Klover VM v.0.1.0 (an idiomatic-Go JVM runtime)"

// getEnvArgs concatenates the three JDK-style options environment
// variables in the order JAVA_TOOL_OPTIONS, _JAVA_OPTIONS,
// JDK_JAVA_OPTIONS, for display and for tests that only want the raw
// joined string. This is not the order in which
// vmflags.Registry.ApplyEnvironment applies them.
func getEnvArgs() string {
	var parts []string
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"} {
		if v := os.Getenv(name); v != "" {
			parts = append(parts, v)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func showCopyright() {
	fmt.Println(versionString)
	fmt.Println("Copyright (c) 2021-2026 the Klover authors. All rights reserved.")
}

func showVersion() {
	fmt.Fprintln(os.Stderr, versionString)
}

// defaultMetaspaceSize is the initial reservation metaspace.NewSpace
// carves out before any loader has defined a class, sized generously
// enough that interpreting a typical class graph never has to grow it.
const defaultMetaspaceSize = 64 * 1024 * 1024

// defaultHeapSize is the managed heap's reservation when -Xmx was
// never set, per vmflags' own "0 = unset, use the platform default"
// contract for the Xmx flag.
const defaultHeapSize = 256 * 1024 * 1024

// bootActors starts the CLD, metaspace, and OOP-storage actors (§4.10),
// reserves the managed heap (C5) per reg's -Xmx, and wires all four
// into the global Universe singleton -- the one-time boot sequence
// every other package's client assumes has already run.
func bootActors(reg *vmflags.Registry) error {
	oopStorageMailbox := oopstorage.NewActor(oopstorage.NewSet())

	graph, _, err := cld.Init(oopStorageMailbox)
	if err != nil {
		return fmt.Errorf("could not initialize the CLD graph: %w", err)
	}
	cldMailbox := cld.NewActor(graph, oopStorageMailbox)

	space, err := metaspace.NewSpace(defaultMetaspaceSize)
	if err != nil {
		return fmt.Errorf("could not reserve the metaspace: %w", err)
	}
	metaspaceMailbox, _ := metaspace.NewActor(space)

	heapSize := reg.Xmx()
	if heapSize <= 0 {
		heapSize = defaultHeapSize
	}
	managedHeap, err := heap.NewManagedHeap(heapSize)
	if err != nil {
		return fmt.Errorf("could not reserve the managed heap: %w", err)
	}

	globals.SetActorMailboxes(cldMailbox, metaspaceMailbox, oopStorageMailbox)
	globals.SetManagedHeap(managedHeap)
	classloader.InitBootstrapLoader()
	return nil
}

// runMainClass loads className via the application classloader, runs
// its <clinit> chain, then locates and interprets its
// `public static void main(String[])` method. A Go panic escaping the
// interpreter (an invariant violation, not a catchable Java exception)
// is reported via jvm's fatal-error helpers and reraised as a plain
// error rather than crashing the process silently.
func runMainClass(className string, progArgs []string) (err error) {
	th := thread.CreateThread()
	defer func() {
		if r := recover(); r != nil {
			jvm.ReportFatalPanic(r, &th)
			err = fmt.Errorf("fatal error while running %s: %v", className, r)
		}
	}()

	g := globals.GetGlobalRef()
	k, loadErr := classloader.LoadClassByName(g.CLDMailbox, &classloader.AppCL, className)
	if loadErr != nil {
		return fmt.Errorf("could not load class %s: %w", className, loadErr)
	}

	ctx := &interpreter.Context{Thread: &th, Loader: &classloader.AppCL, Mailbox: g.CLDMailbox}

	if err := jvm.RunClassInitializers(ctx, k); err != nil {
		return err
	}

	m, found := k.FindMethod("main", "([Ljava/lang/String;)V")
	if !found {
		return fmt.Errorf("class %s has no main([Ljava/lang/String;) method", className)
	}

	argArray := object.NewArray("Ljava/lang/String;", nil, len(progArgs))
	for i, a := range progArgs {
		argArray.Elements[i] = object.CreateCompactStringFromGoString(&a)
	}

	locals := make([]interface{}, m.MaxLocals)
	if len(locals) > 0 {
		locals[0] = argArray
	}

	_, thrown, err := interpreter.CallMethod(ctx, k, m, locals)
	if err != nil {
		return err
	}
	if thrown != nil {
		return thrown
	}
	return nil
}

func newRootCommand() *cobra.Command {
	reg := vmflags.NewRegistry()

	cmd := &cobra.Command{
		Use:   "klover <main-class> [args...]",
		Short: "Klover VM -- an idiomatic-Go Java virtual machine",
		Long: versionString + "\n\n" +
			"Usage:\n  klover [options] <main-class> [args...]\n\n" +
			"where options include:\n" +
			"  --Xmx <size>           set the maximum heap size (e.g. --Xmx 512m)\n" +
			"  --no-compressed-oops   disable compressed object references\n" +
			"  --showversion          print version information and continue\n" +
			"  -h, --help             print this usage message and exit",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			showVer, _ := cmd.Flags().GetBool("showversion")
			if showVer {
				showVersion()
			}
			if err := reg.ApplyEnvironment(); err != nil {
				trace.Error(err.Error())
			}

			if err := bootActors(reg); err != nil {
				return err
			}
			return runMainClass(args[0], args[1:])
		},
	}
	cmd.Flags().Bool("showversion", false, "print version information and continue")
	reg.BindCobraFlags(cmd)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if _, isJavaThrow := err.(*interpreter.ThrownException); isJavaThrow {
			shutdown.Exit(shutdown.JVM_EXCEPTION)
		}
		shutdown.Exit(shutdown.UNHANDLED_EXCEPTION)
	}
}
