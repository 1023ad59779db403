// Command modulegen generates objectgraph modules from a YAML description.
//
// Declaring a module by hand means listing every entry point, static
// injection and provider in a Configure method. modulegen writes that method
// from a small spec kept next to the package, and checks that every name the
// spec mentions is declared in the package.
//
// Spec format (*.module.yaml)
//
//	package: coffee
//	module: DripCoffeeModule
//	overrides: false
//	scanEntryPoints: true      # add every struct with inject tags
//	entryPoints: [CoffeeApp]
//	staticInjections: [Settings]
//	provides:
//	  - func: NewElectricHeater
//	    singleton: true
//	  - func: NewBrand
//	    name: brand
//	    params: ["", "region"]
//	includes: ["PumpModule{}"]
//	imports:
//	  - github.com/acme/coffee/pumps
//
// Typical go:generate usage, in the package that owns the spec:
//
//	//go:generate go run github.com/sghaida/objectgraph/cmd/modulegen -spec ./coffee.module.yaml -out ./coffee_module.gen.go
//
// Generated code
//
// The output declares the module type and its Configure method:
//
//	type DripCoffeeModule struct{}
//
//	func (DripCoffeeModule) Configure(b *module.Binder) {
//		b.EntryPoints(
//			(*CoffeeApp)(nil),
//		)
//		b.StaticInjections(&Settings)
//		b.Provides(NewElectricHeater, module.Singleton())
//		...
//	}
//
// Names qualified by a package (pumps.Pump) are not checked; their package
// must be listed under imports.
//
// Exit codes: 0 on success, 1 when generation fails, 2 on usage errors.
package main
