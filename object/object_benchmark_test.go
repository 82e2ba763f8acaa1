// ==============================================================================================
// FILE: object/object_benchmark_test.go
// ==============================================================================================
// PURPOSE: Performance benchmarks for the Object system.
//          Measures dictionary access costs, environment access time, and object creation overhead.
// ==============================================================================================

package object

import (
	"fmt"
	"testing"
)

// BenchmarkDictionarySet measures the cost of repeated Dictionary.Set calls.
func BenchmarkDictionarySet(b *testing.B) {
	d := NewDictionary()
	keys := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		keys[i] = fmt.Sprintf("key%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Set(keys[i%1000], &Number{Value: float64(i)})
	}
}

// BenchmarkDictionaryGet measures lookup time against a populated Dictionary.
func BenchmarkDictionaryGet(b *testing.B) {
	d := NewDictionary()
	for i := 0; i < 1000; i++ {
		d.Set(fmt.Sprintf("key%d", i), &Number{Value: float64(i)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Get("key500")
	}
}

// BenchmarkEnvironment_Get_Deep measures lookup time in a deeply nested scope.
func BenchmarkEnvironment_Get_Deep(b *testing.B) {
	root := NewEnvironment()
	root.Set("target", &Number{Value: 1})

	curr := root
	for i := 0; i < 50; i++ {
		curr = NewEnclosedEnvironment(curr)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		curr.Get("target")
	}
}

func BenchmarkObjectInspect_LargeList(b *testing.B) {
	elements := make([]Object, 100)
	for i := 0; i < 100; i++ {
		elements[i] = &Number{Value: float64(i)}
	}
	list := &List{Elements: elements}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		list.Inspect()
	}
}

func BenchmarkEnvironment_Set(b *testing.B) {
	env := NewEnvironment()
	val := &Number{Value: 1}
	keys := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		keys[i] = fmt.Sprintf("var%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		env.Set(keys[i%1000], val)
	}
}
