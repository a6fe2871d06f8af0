// Package tools adapts the external imaging binaries used to build an
// executive summary behind one uniform call contract.
//
// The binaries are treated as opaque services:
//
//   - wb_command -show-scene renders one scene of a Connectome Workbench
//     scene file to a PNG ([SceneRenderer])
//   - slicesdir builds the default nine-slice row of a volume, optionally
//     with a red outline volume ([Slicer.SlicesRow])
//   - slicer extracts single or mid-plane slices ([Slicer.Slice],
//     [Slicer.Preview])
//   - flirt resamples a volume into a reference space ([Registrar])
//   - fslmaths -bin binarizes a label volume ([Binarizer])
//
// [Exec] implements every contract by running the configured binaries
// through a [Runner]. Tests substitute the recording fake in the
// toolstest subpackage.
//
// Calls block until the tool exits. There is no timeout beyond the
// caller's context: a hung tool hangs the run.
package tools
