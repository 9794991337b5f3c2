// tflite.go TensorFlow Lite backed implementation of the Model contract
package classifier

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	tflite "github.com/tphakala/go-tflite"

	"github.com/tmarques/floravision/internal/errors"
	"github.com/tmarques/floravision/internal/logging"
)

// TFLiteModel wraps one TensorFlow Lite interpreter. Input dimensions and
// numeric domain are read from the model's input tensor once at load time.
// Invoke serializes access to the interpreter with a mutex, the interpreter
// itself is not safe for concurrent use.
type TFLiteModel struct {
	interpreter *tflite.Interpreter
	width       int
	height      int
	classes     int
	floating    bool
	mu          sync.Mutex
}

// LoadTFLiteModel reads a .tflite model file and prepares an interpreter
// for it. threads limits interpreter CPU threads; zero uses all cores.
func LoadTFLiteModel(path string, threads int) (*TFLiteModel, error) {
	modelData, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryModelLoad).
			Context("model_path", path).
			Context("operation", "read").
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.Newf("cannot load TensorFlow Lite model from %s", path).
			Category(errors.CategoryModelLoad).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, userData any) {
		logging.ForService("classifier").Error("TFLite error", "message", msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, errors.Newf("cannot create interpreter for %s", path).
			Category(errors.CategoryModelInit).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		return nil, errors.Newf("tensor allocation failed: %v", status).
			Category(errors.CategoryModelInit).
			Context("model_path", path).
			Build()
	}

	inputTensor := interpreter.GetInputTensor(0)
	outputTensor := interpreter.GetOutputTensor(0)
	if inputTensor == nil || outputTensor == nil {
		interpreter.Delete()
		return nil, errors.Newf("cannot get input/output tensors for %s", path).
			Category(errors.CategoryModelInit).
			Build()
	}
	if inputTensor.NumDims() != 4 {
		interpreter.Delete()
		return nil, errors.Newf("unexpected input tensor rank %d, want 4 (1,H,W,3)", inputTensor.NumDims()).
			Category(errors.CategoryModelInit).
			Context("model_path", path).
			Build()
	}

	m := &TFLiteModel{
		interpreter: interpreter,
		height:      inputTensor.Dim(1),
		width:       inputTensor.Dim(2),
		classes:     outputTensor.Dim(outputTensor.NumDims() - 1),
		floating:    inputTensor.Type() == tflite.Float32,
	}

	// The model data is no longer needed, TFLite keeps its own copy
	runtime.GC()

	return m, nil
}

// InputWidth returns the declared input width in pixels.
func (m *TFLiteModel) InputWidth() int { return m.width }

// InputHeight returns the declared input height in pixels.
func (m *TFLiteModel) InputHeight() int { return m.height }

// Classes returns the width of the model's output vector.
func (m *TFLiteModel) Classes() int { return m.classes }

// Floating reports whether the model operates in the normalized float
// domain rather than on quantized 8-bit values.
func (m *TFLiteModel) Floating() bool { return m.floating }

// Invoke runs inference on one image worth of interleaved RGB pixels.
// Floating-point models receive pixels mapped to approximately [-1,1],
// quantized models receive the raw bytes. Scores come back as float32 in
// the model's own domain.
func (m *TFLiteModel) Invoke(pixels []uint8) ([]float32, error) {
	if want := m.width * m.height * 3; len(pixels) != want {
		return nil, fmt.Errorf("pixel data length %d does not match input shape (%d,%d,3)=%d",
			len(pixels), m.height, m.width, want)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inputTensor := m.interpreter.GetInputTensor(0)
	if m.floating {
		copy(inputTensor.Float32s(), normalizePixels(pixels))
	} else {
		copy(inputTensor.UInt8s(), pixels)
	}

	if status := m.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputTensor := m.interpreter.GetOutputTensor(0)
	scores := make([]float32, m.classes)
	if m.floating {
		copy(scores, outputTensor.Float32s())
	} else {
		for i, v := range outputTensor.UInt8s() {
			scores[i] = float32(v)
		}
	}
	return scores, nil
}

// Close releases the interpreter.
func (m *TFLiteModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	return nil
}
