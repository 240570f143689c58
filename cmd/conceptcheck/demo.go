package main

// battery is evaluated by "conceptcheck demo"; want is the expected verdict.
var battery = []struct {
	section string
	query   string
	want    bool
}{
	{"numeric", "Incrementable<int>", true},
	{"numeric", "Bitmask<int>", true},
	{"numeric", "Bitmask<float>", false},
	{"numeric", "ShiftableBitmask<int>", true},
	{"numeric", "Ordered<int, float>", true},
	{"numeric", "Ordered<Complex<float>>", false},
	{"numeric", "Arithmetic<int>", true},
	{"numeric", "Arithmetic<Complex<float>>", true},
	{"numeric", "CompatibleArithmetic<Complex<float>, float>", true},
	{"numeric", "CompatibleArithmetic<float, Complex<float>>", false},
	{"pointers", "Swappable<int>", true},
	{"pointers", "ValueSwappable<int*>", true},
	{"pointers", "RandomAccessIterator<int*>", true},
	{"iterators", "BidirectionalIterator<List<int>::iterator>", true},
	{"iterators", "RandomAccessIterator<List<int>::iterator>", false},
	{"iterators", "ForwardIterator<HashSet<int>::iterator>", true},
	{"iterators", "BidirectionalIterator<HashSet<int>::iterator>", false},
	{"containers", "ReversibleContainer<List<int>>", true},
	{"containers", "Container<HashSet<int>>", true},
	{"containers", "ReversibleContainer<HashSet<int>>", false},
	{"containers", "Container<int[]>", true},
	{"allocators", "Allocator<Allocator<int>>", true},
}
