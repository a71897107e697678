package main

import "github.com/tracelab/viper/hooking"

// demoA is the instrumented demo workload: it calls demoC ten times in a
// loop and returns 2.
func demoA(rt *hooking.Runtime, num int) int {
	hooking.Call(rt, hooking.Arg{Name: "num", Value: num})

	for idx := 0; idx < 10; idx++ {
		hooking.Line(rt)
		demoC(rt, idx)
	}

	hooking.Return(rt, 2)

	return 2
}

func demoC(rt *hooking.Runtime, x int) int {
	hooking.Call(rt, hooking.Arg{Name: "x", Value: x})
	hooking.Return(rt, x)

	return x
}
