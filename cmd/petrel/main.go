// Petrel CLI - runs a scripted mutation trace against a fresh runtime,
// printing every watcher event. Useful for eyeballing dispatch behavior.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/petrelvm/petrel/manifest"
	"github.com/petrelvm/petrel/vm"
)

func main() {
	manifestDir := flag.String("manifest", "", "Directory containing petrel.toml (defaults built in)")
	verbosity := flag.Int("v", 0, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: petrel [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the watcher trace scenario against a fresh runtime.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	m := manifest.Default()
	if *manifestDir != "" {
		loaded, err := manifest.Load(*manifestDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "petrel: %v\n", err)
			os.Exit(1)
		}
		m = loaded
	}

	rt, err := vm.NewRuntimeWithLimits(m.Limits())
	if err != nil {
		fmt.Fprintf(os.Stderr, "petrel: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("runtime %s (%s)\n", rt.ID, m.Runtime.Name)

	if err := runTrace(rt); err != nil {
		fmt.Fprintf(os.Stderr, "petrel: %v\n", err)
		os.Exit(1)
	}
}

// runTrace exercises each watched object kind once.
func runTrace(rt *vm.Runtime) error {
	dictID, err := rt.AddDictWatcher(func(ev vm.DictEventKind, d *vm.DictionaryObject, key, value vm.Value) error {
		fmt.Printf("dict %d: %s key=%s value=%s\n", d.ID(), ev, key, value)
		return nil
	})
	if err != nil {
		return err
	}
	defer rt.ClearDictWatcher(dictID)

	typeID, err := rt.AddTypeWatcher(func(c *vm.Class) error {
		fmt.Printf("type: modified %s\n", c.Name)
		return nil
	})
	if err != nil {
		return err
	}
	defer rt.ClearTypeWatcher(typeID)

	codeID, err := rt.AddCodeWatcher(func(ev vm.CodeEventKind, cm *vm.CompiledMethod) error {
		fmt.Printf("code %d: %s %s\n", cm.ID(), ev, cm.Name)
		return nil
	})
	if err != nil {
		return err
	}
	defer rt.ClearCodeWatcher(codeID)

	funcID, err := rt.AddFuncWatcher(func(ev vm.FuncEventKind, fn *vm.FunctionObject, id vm.FuncID, value vm.Value) error {
		if fn == nil {
			fmt.Printf("func %d: %s\n", id, ev)
		} else {
			fmt.Printf("func %d: %s %s value=%s\n", id, ev, fn.Name, value)
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer rt.ClearFuncWatcher(funcID)

	// Dictionary trace
	d := rt.NewDictionary()
	if err := rt.WatchDict(dictID, vm.FromDictionary(d)); err != nil {
		return err
	}
	rt.DictStore(d, vm.FromString("greeting"), vm.FromString("hello"))
	rt.DictStore(d, vm.FromString("greeting"), vm.FromString("goodbye"))
	rt.DictDelete(d, vm.FromString("greeting"))
	rt.DictClear(d)
	rt.ReleaseDictionary(d)

	// Type trace: two writes in one epoch, lookup, another write
	base := rt.NewClass("Animal", nil)
	sub := rt.NewClass("Bird", base)
	if err := rt.WatchType(typeID, vm.FromClass(sub)); err != nil {
		return err
	}
	rt.TypeSetAttr(base, "legs", vm.FromSmallInt(4))
	rt.TypeSetAttr(base, "warmBlooded", vm.True)
	rt.TypeLookup(sub, "legs")
	rt.TypeSetAttr(sub, "legs", vm.FromSmallInt(2))

	// Code and function trace
	cm := rt.NewCompiledMethod("fly", "bird.pt", 0)
	fn := rt.NewFunction("fly", cm)
	rt.SetFunctionDefaults(fn, vm.FromSmallInt(1))
	if err := rt.FuncSetAttr(fn, "kwdefaults", vm.Nil); err != nil {
		return err
	}
	rt.ReleaseFunction(fn)
	rt.ReleaseCompiledMethod(cm)

	return nil
}
