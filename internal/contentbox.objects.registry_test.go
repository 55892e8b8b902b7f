package internal

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func upperImplementation(object *FusionObject) (any, error) {
	value, err := object.StringProperty(PropValue)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(value), nil
}

func TestImplementationRegistry_New(t *testing.T) {
	t.Run("empty registry with nil logger", func(t *testing.T) {
		reg := NewImplementationRegistry(nil)
		require.NotNil(t, reg)
		assert.Equal(t, 0, reg.Count())
	})

	t.Run("default registry has core classes", func(t *testing.T) {
		reg := NewDefaultImplementationRegistry(nil)
		for _, className := range []string{
			ClassValue, ClassTag, ClassJoin, ClassDataStructure, ClassLoop,
			ClassMap, ClassComponent, ClassCase, ClassMatcher, ClassRenderer,
		} {
			assert.True(t, reg.Has(className), className)
		}
		assert.Equal(t, 10, reg.Count())
	})
}

func TestImplementationRegistry_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		reg := NewImplementationRegistry(nil)
		err := reg.Register("Test\\Upper", ImplementationFunc(upperImplementation))
		require.NoError(t, err)

		impl, ok := reg.Get("Test\\Upper")
		require.True(t, ok)
		assert.NotNil(t, impl)
	})

	t.Run("nil implementation", func(t *testing.T) {
		reg := NewImplementationRegistry(nil)
		err := reg.Register("Test\\Nil", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgImplNil)
	})

	t.Run("empty class name", func(t *testing.T) {
		reg := NewImplementationRegistry(nil)
		err := reg.Register("", ImplementationFunc(upperImplementation))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgImplEmptyClass)
	})

	t.Run("collision keeps the first and logs", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		reg := NewImplementationRegistry(zap.New(core))
		require.NoError(t, reg.Register("Test\\Upper", ImplementationFunc(upperImplementation)))

		err := reg.Register("Test\\Upper", ImplementationFunc(evaluateValue))
		require.Error(t, err)

		var regErr *ImplementationRegistryError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, ErrMsgImplAlreadyExists, regErr.Message)
		assert.Equal(t, "Test\\Upper", regErr.ClassName)
		assert.Equal(t, 1, logs.FilterMessage(LogMsgImplCollision).Len())
	})

	t.Run("must register panics on collision", func(t *testing.T) {
		reg := NewDefaultImplementationRegistry(nil)
		assert.Panics(t, func() {
			reg.MustRegister(ClassValue, ImplementationFunc(upperImplementation))
		})
	})
}

func TestImplementationRegistry_List(t *testing.T) {
	reg := NewImplementationRegistry(nil)
	reg.MustRegister("B\\Impl", ImplementationFunc(upperImplementation))
	reg.MustRegister("A\\Impl", ImplementationFunc(upperImplementation))
	assert.Equal(t, []string{"A\\Impl", "B\\Impl"}, reg.List())
}

func TestImplementationRegistry_Concurrent(t *testing.T) {
	reg := NewDefaultImplementationRegistry(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.Get(ClassTag)
			_ = reg.List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, reg.Count())
}

func TestImplementationRegistry_CustomClassInRuntime(t *testing.T) {
	config := parseRuntimeConfig(t, `prototype(Test:Upper) {
    @class = 'Test\\Upper'
    value = ''
}
html = Test:Upper {
    value = ${props.name}
}`, false)

	impls := NewDefaultImplementationRegistry(nil)
	impls.MustRegister("Test\\Upper", ImplementationFunc(upperImplementation))

	runtime := NewRuntime(config, RuntimeOptions{Implementations: impls})
	runtime.PushContext(ContextNameProps, map[string]any{"name": "shout"})

	output, err := runtime.Render(context.Background(), "html")
	require.NoError(t, err)
	assert.Equal(t, "SHOUT", output)
}
