// Package features implements every CZar pass over the flat token vector.
// Register installs them in the order later passes depend on.
package features

import "czar/internal/engine/pipeline"

const (
	FeatureZeroInit           = "zero-init"
	FeatureCastValidate       = "cast-validate"
	FeatureEnumValidate       = "enum-validate"
	FeatureSwitchValidate     = "switch-validate"
	FeatureFunctionValidate   = "function-validate"
	FeatureDeprecated         = "deprecated"
	FeatureFunctionSignatures = "function-signatures"
	FeatureStructs            = "structs"
	FeatureMethods            = "methods"
	FeatureStructNames        = "struct-names"
	FeatureAutoDeref          = "autoderef"
	FeatureEnums              = "enums"
	FeatureSwitch             = "switch"
	FeatureUnreachable        = "unreachable"
	FeatureForeach            = "foreach"
	FeatureNamedArgs          = "named-args"
	FeatureMutability         = "mutability"
	FeatureDefer              = "defer"
	FeatureUnused             = "unused"
	FeatureCastLowering       = "cast-lowering"
	FeatureLowering           = "lowering"
)

// All returns fresh feature descriptors in registration order.
func All() []*pipeline.Feature {
	return []*pipeline.Feature{
		newZeroInit(),
		newCastValidate(),
		newEnumValidate(),
		newSwitchValidate(),
		newFunctionValidate(),
		newDeprecated(),
		newFunctionSignatures(),
		newStructs(),
		newMethods(),
		newStructNames(),
		newAutoDeref(),
		newEnums(),
		newSwitch(),
		newUnreachable(),
		newForeach(),
		newNamedArgs(),
		newMutability(),
		newDefer(),
		newUnused(),
		newCastLowering(),
		newLowering(),
	}
}

func Register(r *pipeline.Registry) error {
	for _, f := range All() {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}
