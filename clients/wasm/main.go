//go:build js && wasm

// assettools WASM - blueprint tools running in the browser.
// Compiled with: GOOS=js GOARCH=wasm go build -o assettools.wasm ./clients/wasm/
package main

import (
	"fmt"
	"syscall/js"

	"github.com/parkitectnexus/assettools/clients/wasm/api"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
)

var store = api.NewStore()

func main() {
	fmt.Println("assettools WASM loaded")

	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goDumpBlueprint", js.FuncOf(dumpBlueprint))
	js.Global().Set("goDumpSavegame", js.FuncOf(dumpSavegame))
	js.Global().Set("goConvertBlueprint", js.FuncOf(convertBlueprint))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// result returns s, or "error: <message>" when err is set.
func result(s string, err error) any {
	if err != nil {
		return js.ValueOf("error: " + pipeline.Message(err))
	}
	return js.ValueOf(s)
}

// goRegisterAsset(id, base64Data) stores artwork or a font in Go memory.
func registerAsset(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Data")
	}
	return result("ok", store.Register(args[0].String(), args[1].String()))
}

// goRemoveAsset(id)
func removeAsset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	store.Remove(args[0].String())
	return js.ValueOf("ok")
}

// goDumpBlueprint(base64Png, exclude?, format?) returns the dump document.
func dumpBlueprint(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need base64Png")
	}
	return result(store.DumpBlueprint(args[0].String(), exclude(args, 1), stringArg(args, 2)))
}

// goDumpSavegame(text, exclude?, format?) returns the dump document.
func dumpSavegame(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need text")
	}
	return result(store.DumpSavegame(args[0].String(), exclude(args, 1), stringArg(args, 2)))
}

// goConvertBlueprint(requestJSON) returns the converted image as base64.
func convertBlueprint(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need requestJSON")
	}
	return result(store.Convert(args[0].String()))
}

// exclude reads an optional array argument. Missing or null selects the
// defaults; an empty array keeps every field.
func exclude(args []js.Value, i int) []string {
	if i >= len(args) || args[i].IsNull() || args[i].IsUndefined() {
		return nil
	}
	v := args[i]
	names := make([]string, v.Length())
	for j := range names {
		names[j] = v.Index(j).String()
	}
	return names
}

func stringArg(args []js.Value, i int) string {
	if i >= len(args) || args[i].IsNull() || args[i].IsUndefined() {
		return ""
	}
	return args[i].String()
}
