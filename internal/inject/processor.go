package inject

import (
	"deobinject/internal/api"
	"deobinject/internal/classfile"
)

// MethodTarget is what a MethodProcessor sees for one deobfuscated method.
type MethodTarget struct {
	Method  *classfile.Method    // deobfuscated, read only
	Vanilla *classfile.ClassFile // counterpart of Method.Owner
	API     *api.Interface       // interface of Vanilla; nil when none was injected
}

// MethodProcessor is run for every method of every annotated deobfuscated
// class during the member pass. Hook and mixin injectors plug in here.
// Returning an error aborts the run.
type MethodProcessor interface {
	ProcessMethod(inj *Injector, t MethodTarget) error
}

// ProcessorFunc adapts a function to MethodProcessor.
type ProcessorFunc func(inj *Injector, t MethodTarget) error

func (f ProcessorFunc) ProcessMethod(inj *Injector, t MethodTarget) error { return f(inj, t) }
